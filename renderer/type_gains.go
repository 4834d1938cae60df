package renderer

import (
	"fmt"

	"github.com/etnz/capgains"
)

// Gains is the data of a capital gains report over consecutive periods.
type Gains struct {
	Currency     string         `json:"currency"`
	Range        capgains.Range `json:"range"`
	LongTermDays int            `json:"longTermDays"`
	Periods      []PeriodGains  `json:"periods"`
	Total        PeriodGains    `json:"total"`
	Assets       []AssetGains   `json:"assets"`
	Portions     []Portion      `json:"portions"`
}

// PeriodGains holds the realized gains of one period.
type PeriodGains struct {
	Label           string         `json:"label"`
	Disposals       int            `json:"disposals"`
	Proceeds        capgains.Money `json:"proceeds"`
	CostBasis       capgains.Money `json:"costBasis"`
	ShortTermGains  capgains.Money `json:"shortTermGains"`
	ShortTermLosses capgains.Money `json:"shortTermLosses"`
	LongTermGains   capgains.Money `json:"longTermGains"`
	LongTermLosses  capgains.Money `json:"longTermLosses"`
	Net             capgains.Money `json:"net"`
}

// AssetGains holds the realized gains of one asset over the whole report.
type AssetGains struct {
	Asset     string            `json:"asset"`
	Quantity  capgains.Quantity `json:"quantity"`
	Proceeds  capgains.Money    `json:"proceeds"`
	CostBasis capgains.Money    `json:"costBasis"`
	ShortTerm capgains.Money    `json:"shortTerm"` // net
	LongTerm  capgains.Money    `json:"longTerm"`  // net
	Net       capgains.Money    `json:"net"`
}

// Portion is a report line for a matched portion.
type Portion struct {
	Disposed    string            `json:"disposed"`
	Asset       string            `json:"asset"`
	Lot         string            `json:"lot"`
	Acquired    string            `json:"acquired"`
	Quantity    capgains.Quantity `json:"quantity"`
	Proceeds    capgains.Money    `json:"proceeds"`
	CostBasis   capgains.Money    `json:"costBasis"`
	GainLoss    capgains.Money    `json:"gainLoss"`
	Term        capgains.Term     `json:"term"`
	HoldingDays int               `json:"holdingDays"`
}

// NewGains builds the report of consecutive period results, in order.
func NewGains(currency string, results []*capgains.Result) *Gains {
	g := &Gains{
		Currency:     currency,
		LongTermDays: capgains.LongTermDays,
	}
	if len(results) > 0 {
		g.Range = capgains.Range{From: results[0].Range.From, To: results[len(results)-1].Range.To}
	}

	var all []capgains.MatchedPortion
	for _, res := range results {
		g.Periods = append(g.Periods, newPeriodGains(Label(res.Range), res.Summary))
		all = append(all, res.Summary.Portions...)
	}
	total := capgains.Aggregate(g.Range, currency, all)
	g.Total = newPeriodGains("Total", total)

	for _, asset := range total.Assets() {
		s := total.ForAsset(asset)
		row := AssetGains{
			Asset:     asset,
			Proceeds:  s.TotalProceeds,
			CostBasis: s.TotalCostBasis,
			ShortTerm: s.ShortTermGains.Sub(s.ShortTermLosses),
			LongTerm:  s.LongTermGains.Sub(s.LongTermLosses),
			Net:       s.NetGainLoss,
		}
		for _, p := range s.Portions {
			row.Quantity = row.Quantity.Add(p.Quantity)
		}
		g.Assets = append(g.Assets, row)
	}

	for _, p := range all {
		g.Portions = append(g.Portions, Portion{
			Disposed:    capgains.DateOf(p.DisposedAt).String(),
			Asset:       p.Asset,
			Lot:         shortRef(p.LotID),
			Acquired:    capgains.DateOf(p.AcquiredAt).String(),
			Quantity:    p.Quantity,
			Proceeds:    p.Proceeds,
			CostBasis:   p.CostBasis,
			GainLoss:    p.GainLoss,
			Term:        p.Term,
			HoldingDays: p.HoldingDays,
		})
	}
	return g
}

func newPeriodGains(label string, s capgains.PeriodSummary) PeriodGains {
	return PeriodGains{
		Label:           label,
		Disposals:       len(s.Disposals()),
		Proceeds:        s.TotalProceeds,
		CostBasis:       s.TotalCostBasis,
		ShortTermGains:  s.ShortTermGains,
		ShortTermLosses: s.ShortTermLosses,
		LongTermGains:   s.LongTermGains,
		LongTermLosses:  s.LongTermLosses,
		Net:             s.NetGainLoss,
	}
}

// Label returns the short name of a reporting period: "2024" for a calendar
// year, "2024-Q2" for a quarter, "2024-05" for a month, or the range itself.
func Label(r capgains.Range) string {
	from := r.From
	is := func(p capgains.Period) bool {
		return from == from.StartOf(p) && r.To == from.EndOf(p)
	}
	switch {
	case is(capgains.Yearly):
		return fmt.Sprintf("%d", from.Year())
	case is(capgains.Quarterly):
		return fmt.Sprintf("%d-Q%d", from.Year(), (int(from.Month())-1)/3+1)
	case is(capgains.Monthly):
		return fmt.Sprintf("%d-%02d", from.Year(), int(from.Month()))
	case r.From == r.To:
		return from.String()
	}
	return r.String()
}

// shortRef keeps references readable in tables: derived references are
// uuids and their first block is enough to tell them apart.
func shortRef(ref string) string {
	if len(ref) == 36 && ref[8] == '-' {
		return ref[:8]
	}
	return ref
}
