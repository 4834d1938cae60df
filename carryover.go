package capgains

import (
	"maps"
	"slices"
)

// Carryover is the set of open lots handed from one reporting period to the
// next, per asset and in FIFO order. It is a value: sessions never modify the
// carryover they are seeded with.
type Carryover struct {
	lots map[string][]TaxLot
}

// NewCarryover groups lots by asset, keeping their relative order.
// Closed lots are dropped.
func NewCarryover(lots ...TaxLot) Carryover {
	c := Carryover{lots: make(map[string][]TaxLot)}
	for _, l := range lots {
		if l.Closed() {
			continue
		}
		c.lots[l.Asset] = append(c.lots[l.Asset], l)
	}
	return c
}

// Assets returns the sorted assets with open lots.
func (c Carryover) Assets() []string {
	return slices.Sorted(maps.Keys(c.lots))
}

// Lots returns a copy of the open lots of asset, oldest first.
func (c Carryover) Lots(asset string) []TaxLot {
	return slices.Clone(c.lots[asset])
}

// All returns every open lot, sorted by asset then FIFO order.
func (c Carryover) All() []TaxLot {
	var all []TaxLot
	for _, asset := range c.Assets() {
		all = append(all, c.lots[asset]...)
	}
	return all
}

// Len returns the number of open lots.
func (c Carryover) Len() int {
	n := 0
	for _, lots := range c.lots {
		n += len(lots)
	}
	return n
}

// Position returns the open quantity of asset.
func (c Carryover) Position(asset string) Quantity {
	var q Quantity
	for _, l := range c.lots[asset] {
		q = q.Add(l.RemainingQuantity)
	}
	return q
}

// store returns a new LotStore for asset seeded from the carryover.
func (c Carryover) store(asset string) (*LotStore, error) {
	s := NewLotStore(asset)
	for _, l := range c.lots[asset] {
		if err := s.AddLot(l); err != nil {
			return nil, err
		}
	}
	return s, nil
}
