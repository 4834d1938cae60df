package capgains

import (
	"slices"
	"time"
)

// MatchedPortion is the part of a disposal matched against a single lot.
type MatchedPortion struct {
	DisposalID  string    // reference of the disposal event
	LotID       string    // reference of the consumed lot
	Asset       string    // asset symbol
	Quantity    Quantity  // matched quantity
	Proceeds    Money     // proceeds allocated to the matched quantity
	CostBasis   Money     // cost basis allocated to the matched quantity
	GainLoss    Money     // Proceeds - CostBasis
	Term        Term      // holding-period classification
	HoldingDays int       // whole days between acquisition and disposal
	AcquiredAt  time.Time // acquisition time of the lot
	DisposedAt  time.Time // disposal time
}

// Match consumes a disposal from the store, oldest lots first, and returns
// one MatchedPortion per lot consumed.
//
// Proceeds are allocated pro rata of the matched quantity; the last portion
// of the disposal takes the exact remainder so that the portions always sum
// to the disposal value.
//
// If the store runs out of lots, Match returns the portions matched so far
// together with an *InsufficientLotsError carrying the unmatched quantity.
// The lots consumed up to that point stay consumed.
func Match(store *LotStore, ref string, disposal Event) ([]MatchedPortion, error) {
	if disposal.Kind != Disposal || disposal.Asset != store.Asset() {
		return nil, &InvalidEventError{EventIndex: -1, Reason: "cannot match " + disposal.Kind.String() + " of " + disposal.Asset + " against lots of " + store.Asset()}
	}

	var portions []MatchedPortion
	toMatch := disposal.Quantity
	allocated := M(0, disposal.Value.Currency())

	for toMatch.IsPositive() {
		lot := store.oldest()
		if lot == nil {
			return portions, &InsufficientLotsError{
				Asset:      disposal.Asset,
				Unmatched:  toMatch,
				EventIndex: -1,
				EventID:    ref,
				At:         disposal.Time,
			}
		}

		matched := toMatch.Min(lot.RemainingQuantity)

		var proceeds Money
		if matched.Equal(toMatch) {
			proceeds = disposal.Value.Sub(allocated)
		} else {
			proceeds = disposal.Value.MulDiv(matched, disposal.Quantity)
		}
		allocated = allocated.Add(proceeds)

		cost := lot.consume(matched)
		term, days := Classify(lot.AcquiredAt, disposal.Time)

		portions = append(portions, MatchedPortion{
			DisposalID:  ref,
			LotID:       lot.ID,
			Asset:       disposal.Asset,
			Quantity:    matched,
			Proceeds:    proceeds,
			CostBasis:   cost,
			GainLoss:    proceeds.Sub(cost),
			Term:        term,
			HoldingDays: days,
			AcquiredAt:  lot.AcquiredAt,
			DisposedAt:  disposal.Time,
		})

		toMatch = toMatch.Sub(matched)
		store.RemoveIfFullyConsumed()
	}
	return portions, nil
}

// ZeroCostLot returns the acquisition that covers the shortfall reported by
// err with a zero cost basis, dated at the disposal. It is meant for callers
// that decide to treat unknown provenance (airdrops, missing history) as
// free acquisitions; the engine never applies it on its own.
func ZeroCostLot(err *InsufficientLotsError, currency string) Event {
	e := NewAcquisition(err.At, err.Asset, err.Unmatched, M(0, currency))
	e.ID = "zero-cost:" + err.EventID
	return e
}

// CoverShortfall returns a copy of events with ZeroCostLot(err) inserted just
// before the failing disposal, ready to be resubmitted.
func CoverShortfall(events []Event, err *InsufficientLotsError, currency string) []Event {
	i := err.EventIndex
	if i < 0 || i > len(events) {
		i = len(events)
	}
	return slices.Insert(slices.Clone(events), i, ZeroCostLot(err, currency))
}
