package capgains

import (
	"testing"
)

func portion(disposal, asset string, term Term, proceeds, cost float64) MatchedPortion {
	return MatchedPortion{
		DisposalID: disposal,
		Asset:      asset,
		Quantity:   Q(1),
		Proceeds:   USD(proceeds),
		CostBasis:  USD(cost),
		GainLoss:   USD(proceeds).Sub(USD(cost)),
		Term:       term,
	}
}

func TestAggregate_Buckets(t *testing.T) {
	portions := []MatchedPortion{
		portion("d1", "A", Short, 150, 100), // +50 short
		portion("d1", "A", Long, 80, 100),   // -20 long
		portion("d2", "B", Long, 300, 100),  // +200 long
		portion("d3", "B", Short, 10, 40),   // -30 short
		portion("d4", "A", Long, 50, 50),    // 0
	}
	s := Aggregate(Range{}, "USD", portions)

	testCases := []struct {
		name string
		got  Money
		want Money
	}{
		{"ShortTermGains", s.ShortTermGains, USD(50)},
		{"LongTermGains", s.LongTermGains, USD(200)},
		{"ShortTermLosses", s.ShortTermLosses, USD(30)},
		{"LongTermLosses", s.LongTermLosses, USD(20)},
		{"TotalGains", s.TotalGains, USD(250)},
		{"TotalLosses", s.TotalLosses, USD(50)},
		{"NetGainLoss", s.NetGainLoss, USD(200)},
		{"TotalCostBasis", s.TotalCostBasis, USD(390)},
		{"TotalProceeds", s.TotalProceeds, USD(590)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if !tc.got.Equal(tc.want) {
				t.Errorf("%s = %v, want %v", tc.name, tc.got.Decimal(), tc.want.Decimal())
			}
		})
	}

	if len(s.Portions) != len(portions) {
		t.Errorf("len(Portions) = %d, want %d", len(s.Portions), len(portions))
	}
	for i := range portions {
		if s.Portions[i].DisposalID != portions[i].DisposalID {
			t.Errorf("Portions[%d] = %s, want arrival order %s", i, s.Portions[i].DisposalID, portions[i].DisposalID)
		}
	}
}

func TestAggregate_Empty(t *testing.T) {
	s := Aggregate(Range{}, "EUR", nil)
	if !s.NetGainLoss.Equal(EUR(0)) || !s.TotalProceeds.Equal(EUR(0)) {
		t.Errorf("empty summary = %v/%v, want zeros in EUR", s.NetGainLoss, s.TotalProceeds)
	}
	if len(s.Assets()) != 0 || len(s.Disposals()) != 0 {
		t.Error("empty summary has assets or disposals")
	}
}

func TestPeriodSummary_Disposals(t *testing.T) {
	s := Aggregate(Range{}, "USD", []MatchedPortion{
		portion("d1", "A", Short, 150, 100),
		portion("d1", "A", Long, 80, 100),
		portion("d2", "B", Long, 300, 100),
	})

	details := s.Disposals()
	if len(details) != 2 {
		t.Fatalf("len(Disposals()) = %d, want 2", len(details))
	}
	d1 := details[0]
	if d1.ID != "d1" || len(d1.Portions) != 2 {
		t.Fatalf("Disposals()[0] = %s with %d portions, want d1 with 2", d1.ID, len(d1.Portions))
	}
	if !d1.GainLoss.Equal(USD(30)) || !d1.Quantity.Equal(Q(2)) {
		t.Errorf("d1 = %v gain on %v units, want 30 on 2", d1.GainLoss.Decimal(), d1.Quantity)
	}
}

func TestPeriodSummary_ForAsset(t *testing.T) {
	s := Aggregate(Range{}, "USD", []MatchedPortion{
		portion("d1", "A", Short, 150, 100),
		portion("d2", "B", Long, 300, 100),
	})
	if got := s.Assets(); len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("Assets() = %v, want [A B]", got)
	}
	b := s.ForAsset("B")
	if !b.NetGainLoss.Equal(USD(200)) || len(b.Portions) != 1 {
		t.Errorf("ForAsset(B) = %v net over %d portions, want 200 over 1", b.NetGainLoss.Decimal(), len(b.Portions))
	}
}
