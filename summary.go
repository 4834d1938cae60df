package capgains

import (
	"slices"
	"time"
)

// PeriodSummary aggregates the matched portions of one reporting period.
//
// Gains and losses are kept per term as non-negative amounts. Every total is
// the exact sum over Portions: a summary is always recomputed from its detail.
type PeriodSummary struct {
	Range    Range  // reporting period, zero when unknown
	Currency string // reporting currency

	ShortTermGains  Money
	LongTermGains   Money
	ShortTermLosses Money
	LongTermLosses  Money

	TotalGains     Money
	TotalLosses    Money
	NetGainLoss    Money // TotalGains - TotalLosses
	TotalCostBasis Money
	TotalProceeds  Money

	Portions []MatchedPortion // in disposal processing order
}

// Aggregate folds portions, in order, into a PeriodSummary.
func Aggregate(r Range, currency string, portions []MatchedPortion) PeriodSummary {
	zero := M(0, currency)
	s := PeriodSummary{
		Range:           r,
		Currency:        currency,
		ShortTermGains:  zero,
		LongTermGains:   zero,
		ShortTermLosses: zero,
		LongTermLosses:  zero,
		TotalCostBasis:  zero,
		TotalProceeds:   zero,
		Portions:        make([]MatchedPortion, 0, len(portions)),
	}
	for _, p := range portions {
		s.add(p)
	}
	s.TotalGains = s.ShortTermGains.Add(s.LongTermGains)
	s.TotalLosses = s.ShortTermLosses.Add(s.LongTermLosses)
	s.NetGainLoss = s.TotalGains.Sub(s.TotalLosses)
	return s
}

// add routes the portion into exactly one (term, sign) bucket. A zero gain
// changes no bucket.
func (s *PeriodSummary) add(p MatchedPortion) {
	switch {
	case p.GainLoss.IsPositive() && p.Term == Long:
		s.LongTermGains = s.LongTermGains.Add(p.GainLoss)
	case p.GainLoss.IsPositive():
		s.ShortTermGains = s.ShortTermGains.Add(p.GainLoss)
	case p.GainLoss.IsNegative() && p.Term == Long:
		s.LongTermLosses = s.LongTermLosses.Add(p.GainLoss.Neg())
	case p.GainLoss.IsNegative():
		s.ShortTermLosses = s.ShortTermLosses.Add(p.GainLoss.Neg())
	}
	s.TotalCostBasis = s.TotalCostBasis.Add(p.CostBasis)
	s.TotalProceeds = s.TotalProceeds.Add(p.Proceeds)
	s.Portions = append(s.Portions, p)
}

// Assets returns the sorted list of assets with at least one portion.
func (s PeriodSummary) Assets() []string {
	var assets []string
	for _, p := range s.Portions {
		if !slices.Contains(assets, p.Asset) {
			assets = append(assets, p.Asset)
		}
	}
	slices.Sort(assets)
	return assets
}

// ForAsset returns the summary restricted to the portions of one asset.
func (s PeriodSummary) ForAsset(asset string) PeriodSummary {
	var portions []MatchedPortion
	for _, p := range s.Portions {
		if p.Asset == asset {
			portions = append(portions, p)
		}
	}
	return Aggregate(s.Range, s.Currency, portions)
}

// DisposalDetail is the result of a single disposal: the sum of its portions.
type DisposalDetail struct {
	ID         string
	Asset      string
	DisposedAt time.Time
	Quantity   Quantity
	Proceeds   Money
	CostBasis  Money
	GainLoss   Money
	Portions   []MatchedPortion
}

// Disposals groups the portions per disposal, in processing order.
func (s PeriodSummary) Disposals() []DisposalDetail {
	var details []DisposalDetail
	index := make(map[string]int)
	for _, p := range s.Portions {
		i, ok := index[p.DisposalID]
		if !ok {
			i = len(details)
			index[p.DisposalID] = i
			zero := M(0, s.Currency)
			details = append(details, DisposalDetail{
				ID:         p.DisposalID,
				Asset:      p.Asset,
				DisposedAt: p.DisposedAt,
				Proceeds:   zero,
				CostBasis:  zero,
				GainLoss:   zero,
			})
		}
		d := &details[i]
		d.Quantity = d.Quantity.Add(p.Quantity)
		d.Proceeds = d.Proceeds.Add(p.Proceeds)
		d.CostBasis = d.CostBasis.Add(p.CostBasis)
		d.GainLoss = d.GainLoss.Add(p.GainLoss)
		d.Portions = append(d.Portions, p)
	}
	return details
}
