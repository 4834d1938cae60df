package capgains

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TaxLot is a single acquisition of an asset, consumed over time by disposals.
type TaxLot struct {
	ID                string    // reference of the acquisition event
	Asset             string    // asset symbol
	OriginalQuantity  Quantity  // quantity acquired
	RemainingQuantity Quantity  // quantity still open, 0 <= remaining <= original
	CostBasis         Money     // total cost of the original quantity
	UnitCostBasis     Money     // CostBasis / OriginalQuantity, fixed at creation
	ConsumedCost      Money     // part of CostBasis already allocated to disposals
	AcquiredAt        time.Time // acquisition time
}

// NewLot creates the lot opened by an acquisition event.
func NewLot(ref string, e Event) TaxLot {
	return TaxLot{
		ID:                ref,
		Asset:             e.Asset,
		OriginalQuantity:  e.Quantity,
		RemainingQuantity: e.Quantity,
		CostBasis:         e.Value,
		UnitCostBasis:     e.Value.Div(e.Quantity),
		ConsumedCost:      M(0, e.Value.Currency()),
		AcquiredAt:        e.Time,
	}
}

// Closed is true once the lot has been fully consumed.
func (l TaxLot) Closed() bool { return l.RemainingQuantity.IsZero() }

// RemainingCost is the cost basis of the remaining quantity.
func (l TaxLot) RemainingCost() Money { return l.CostBasis.Sub(l.ConsumedCost) }

// costTolerance absorbs the rounding of UnitCostBasis, which has a finite
// number of digits when CostBasis/OriginalQuantity does not. It is per unit of
// quantity above one.
var costTolerance = decimal.New(1, -9)

// sameCost reports whether a and b agree up to the rounding of a unit cost
// multiplied by q.
func sameCost(a, b Money, q Quantity) bool {
	tol := costTolerance
	if q.Decimal().GreaterThan(decimal.NewFromInt(1)) {
		tol = tol.Mul(q.Decimal())
	}
	return a.Decimal().Sub(b.Decimal()).Abs().LessThanOrEqual(tol)
}

// sameCurrency treats the empty currency as compatible with any other.
func sameCurrency(a, b Money) bool {
	return a.Currency() == "" || b.Currency() == "" || a.Currency() == b.Currency()
}

// normalized fills the fields a lot built outside the engine may leave out:
// the unit cost, and the cost already allocated to its consumed part.
func (l TaxLot) normalized() TaxLot {
	if l.UnitCostBasis.IsZero() && !l.CostBasis.IsZero() && l.OriginalQuantity.IsPositive() {
		l.UnitCostBasis = l.CostBasis.Div(l.OriginalQuantity)
	}
	if l.ConsumedCost.IsZero() && l.RemainingQuantity.LessThan(l.OriginalQuantity) {
		open := l.UnitCostBasis.Decimal().Mul(l.RemainingQuantity.Decimal())
		l.ConsumedCost = M(l.CostBasis.Decimal().Sub(open), l.CostBasis.Currency())
	}
	return l
}

// validate checks that the lot is usable by the matcher: quantities within
// bounds, a known acquisition time, and an open cost equal to the unit cost
// of the open quantity.
func (l TaxLot) validate() error {
	switch {
	case l.Asset == "":
		return fmt.Errorf("lot %q has no asset", l.ID)
	case l.AcquiredAt.IsZero():
		return fmt.Errorf("lot %q of %s has no acquisition time", l.ID, l.Asset)
	case !l.OriginalQuantity.IsPositive():
		return fmt.Errorf("lot %q of %s has original quantity %s, want > 0", l.ID, l.Asset, l.OriginalQuantity)
	case l.RemainingQuantity.IsNegative() || l.RemainingQuantity.GreaterThan(l.OriginalQuantity):
		return fmt.Errorf("lot %q of %s has remaining quantity %s outside [0, %s]", l.ID, l.Asset, l.RemainingQuantity, l.OriginalQuantity)
	case l.CostBasis.IsNegative() || l.ConsumedCost.IsNegative():
		return fmt.Errorf("lot %q of %s has a negative cost", l.ID, l.Asset)
	case !sameCurrency(l.CostBasis, l.UnitCostBasis) || !sameCurrency(l.CostBasis, l.ConsumedCost):
		return fmt.Errorf("lot %q of %s mixes currencies", l.ID, l.Asset)
	}
	if !sameCost(l.UnitCostBasis.Mul(l.OriginalQuantity), l.CostBasis, l.OriginalQuantity) {
		return fmt.Errorf("lot %q of %s: unit cost %s does not match cost %s", l.ID, l.Asset, l.UnitCostBasis.Decimal(), l.CostBasis.Decimal())
	}
	if !sameCost(l.RemainingCost(), l.UnitCostBasis.Mul(l.RemainingQuantity), l.OriginalQuantity) {
		return fmt.Errorf("lot %q of %s: open cost %s does not match %s units at %s", l.ID, l.Asset, l.RemainingCost().Decimal(), l.RemainingQuantity, l.UnitCostBasis.Decimal())
	}
	return nil
}

// consume removes q (0 < q <= remaining) from the lot and returns its cost basis.
// The cost is CostBasis*q/OriginalQuantity, i.e. UnitCostBasis*q without the
// rounding of the unit cost. Consuming the last units takes the exact remaining
// cost so that a lot always allocates exactly its CostBasis.
func (l *TaxLot) consume(q Quantity) Money {
	var cost Money
	if q.Equal(l.RemainingQuantity) {
		cost = l.RemainingCost()
	} else {
		cost = l.CostBasis.MulDiv(q, l.OriginalQuantity)
	}
	l.RemainingQuantity = l.RemainingQuantity.Sub(q)
	l.ConsumedCost = l.ConsumedCost.Add(cost)
	return cost
}

// LotStore is the FIFO queue of lots of a single asset.
// Lots are appended at the tail and consumed at the head; they are never
// reordered nor deleted: closed lots stay before the head for audit.
type LotStore struct {
	asset string
	lots  []TaxLot
	head  int // index of the oldest open lot
}

// NewLotStore returns an empty store for asset.
func NewLotStore(asset string) *LotStore { return &LotStore{asset: asset} }

// Asset returns the asset symbol of the store.
func (s *LotStore) Asset() string { return s.asset }

// AddLot appends a lot at the tail of the queue. Missing derived costs are
// filled in, closed lots are ignored, and a lot of another asset or with
// inconsistent quantities or costs is rejected.
func (s *LotStore) AddLot(lot TaxLot) error {
	if lot.Asset != s.asset {
		return fmt.Errorf("lot %q of %s added to the %s queue", lot.ID, lot.Asset, s.asset)
	}
	lot = lot.normalized()
	if err := lot.validate(); err != nil {
		return err
	}
	if lot.Closed() {
		return nil
	}
	s.lots = append(s.lots, lot)
	return nil
}

// oldest returns the head lot for in-place consumption, or nil.
func (s *LotStore) oldest() *TaxLot {
	if s.head >= len(s.lots) {
		return nil
	}
	return &s.lots[s.head]
}

// PeekOldest returns a copy of the oldest open lot.
func (s *LotStore) PeekOldest() (TaxLot, bool) {
	l := s.oldest()
	if l == nil {
		return TaxLot{}, false
	}
	return *l, true
}

// RemoveIfFullyConsumed advances the head past the oldest lot when it is
// closed. It reports whether the head moved.
func (s *LotStore) RemoveIfFullyConsumed() bool {
	l := s.oldest()
	if l == nil || !l.Closed() {
		return false
	}
	s.head++
	return true
}

// Snapshot returns a copy of the open lots, oldest first.
func (s *LotStore) Snapshot() []TaxLot {
	return append([]TaxLot(nil), s.lots[s.head:]...)
}

// Closed returns a copy of the lots fully consumed, in closing order.
func (s *LotStore) Closed() []TaxLot {
	return append([]TaxLot(nil), s.lots[:s.head]...)
}

// Len returns the number of open lots.
func (s *LotStore) Len() int { return len(s.lots) - s.head }

// Position returns the total open quantity.
func (s *LotStore) Position() Quantity {
	var q Quantity
	for _, l := range s.lots[s.head:] {
		q = q.Add(l.RemainingQuantity)
	}
	return q
}

// Clone returns an independent copy of the store.
func (s *LotStore) Clone() *LotStore {
	return &LotStore{
		asset: s.asset,
		lots:  append([]TaxLot(nil), s.lots...),
		head:  s.head,
	}
}
