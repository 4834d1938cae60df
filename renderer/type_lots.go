package renderer

import "github.com/etnz/capgains"

// Lots is the data of an open lots report.
type Lots struct {
	Lots      []Lot      `json:"lots"`
	Positions []Position `json:"positions"`
}

// Lot is a report line for an open lot.
type Lot struct {
	Asset         string            `json:"asset"`
	Lot           string            `json:"lot"`
	Acquired      string            `json:"acquired"`
	Original      capgains.Quantity `json:"original"`
	Remaining     capgains.Quantity `json:"remaining"`
	UnitCost      capgains.Money    `json:"unitCost"`
	RemainingCost capgains.Money    `json:"remainingCost"`
}

// Position sums the open lots of an asset.
type Position struct {
	Asset     string            `json:"asset"`
	Lots      int               `json:"lots"`
	Quantity  capgains.Quantity `json:"quantity"`
	CostBasis capgains.Money    `json:"costBasis"`
}

// NewLots builds the report of the open lots in c, by asset then FIFO order.
func NewLots(c capgains.Carryover) *Lots {
	l := &Lots{}
	for _, asset := range c.Assets() {
		pos := Position{Asset: asset}
		for _, lot := range c.Lots(asset) {
			l.Lots = append(l.Lots, Lot{
				Asset:         asset,
				Lot:           shortRef(lot.ID),
				Acquired:      capgains.DateOf(lot.AcquiredAt).String(),
				Original:      lot.OriginalQuantity,
				Remaining:     lot.RemainingQuantity,
				UnitCost:      lot.UnitCostBasis,
				RemainingCost: lot.RemainingCost(),
			})
			pos.Lots++
			pos.Quantity = pos.Quantity.Add(lot.RemainingQuantity)
			pos.CostBasis = pos.CostBasis.Add(lot.RemainingCost())
		}
		l.Positions = append(l.Positions, pos)
	}
	return l
}
