package capgains

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// cmpOpts compares engine values by their decimal value.
var cmpOpts = cmp.Options{
	cmp.Comparer(func(a, b Money) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b Quantity) bool { return a.Equal(b) }),
	cmp.AllowUnexported(Date{}, Carryover{}),
}

func TestSession_Scenario(t *testing.T) {
	s := newTestSession(t)
	res, err := s.Run(Range{}, Carryover{}, []Event{
		buy(0, "ACME", 2, 100),
		buy(10, "ACME", 3, 210),
		sell(400, "ACME", 4, 800),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	sum := res.Summary
	if !sum.LongTermGains.Equal(USD(560)) {
		t.Errorf("LongTermGains = %v, want 560", sum.LongTermGains.Decimal())
	}
	if !sum.ShortTermGains.IsZero() || !sum.TotalLosses.IsZero() {
		t.Errorf("ShortTermGains = %v, TotalLosses = %v, want 0", sum.ShortTermGains, sum.TotalLosses)
	}
	if !sum.NetGainLoss.Equal(USD(560)) || !sum.TotalCostBasis.Equal(USD(240)) || !sum.TotalProceeds.Equal(USD(800)) {
		t.Errorf("net/cost/proceeds = %v/%v/%v, want 560/240/800", sum.NetGainLoss.Decimal(), sum.TotalCostBasis.Decimal(), sum.TotalProceeds.Decimal())
	}

	open := res.Carryover.Lots("ACME")
	if len(open) != 1 || !open[0].RemainingQuantity.Equal(Q(1)) || !open[0].RemainingCost().Equal(USD(70)) {
		t.Fatalf("carryover = %+v, want 1 unit costing 70", open)
	}
	if len(res.Closed) != 1 {
		t.Errorf("len(Closed) = %d, want 1", len(res.Closed))
	}
}

func TestSession_CarryoverContinuity(t *testing.T) {
	s := newTestSession(t)
	first, err := s.Run(Range{}, Carryover{}, []Event{
		buy(0, "X", 5, 50),
		sell(30, "X", 2, 30),
	})
	if err != nil {
		t.Fatalf("Run(period N) error = %v", err)
	}
	carried := first.Carryover.Lots("X")
	if len(carried) != 1 || !carried[0].RemainingQuantity.Equal(Q(3)) {
		t.Fatalf("carryover = %+v, want a single lot with 3 units", carried)
	}

	second, err := s.Run(Range{}, first.Carryover, []Event{
		sell(400, "X", 1, 20),
	})
	if err != nil {
		t.Fatalf("Run(period N+1) error = %v", err)
	}
	p := second.Summary.Portions[0]
	if p.LotID != carried[0].ID {
		t.Errorf("LotID = %s, want carried lot %s", p.LotID, carried[0].ID)
	}
	if !p.AcquiredAt.Equal(onDay(0)) {
		t.Errorf("AcquiredAt = %v, want %v", p.AcquiredAt, onDay(0))
	}
	if !p.CostBasis.Equal(USD(10)) || p.Term != Long {
		t.Errorf("portion = %v cost, %v, want 10 cost, long", p.CostBasis.Decimal(), p.Term)
	}
	next := second.Carryover.Lots("X")
	if !next[0].UnitCostBasis.Equal(carried[0].UnitCostBasis) {
		t.Errorf("UnitCostBasis = %v, want %v", next[0].UnitCostBasis, carried[0].UnitCostBasis)
	}
	// The seed is a value: the first result is left untouched.
	if !first.Carryover.Position("X").Equal(Q(3)) {
		t.Errorf("seed Position() = %v, want 3", first.Carryover.Position("X"))
	}
}

func TestSession_Idempotent(t *testing.T) {
	s := newTestSession(t)
	carry := NewCarryover(NewLot("seed", buy(-100, "A", 10, 1000)))
	events := []Event{
		buy(1, "A", 3, 333.33),
		buy(2, "B", 7, 100),
		sell(3, "A", 11, 1234.56),
		sell(370, "B", 2.5, 9),
		sell(400, "A", 1, 100),
	}

	r1, err := s.Run(Range{}, carry, events)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	r2, err := s.Run(Range{}, carry, events)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if diff := cmp.Diff(r1, r2, cmpOpts); diff != "" {
		t.Errorf("second Run() mismatch (-first +second):\n%s", diff)
	}

	j1, _ := json.Marshal(r1.Summary.Portions)
	j2, _ := json.Marshal(r2.Summary.Portions)
	if string(j1) != string(j2) {
		t.Errorf("portions are not bit-identical:\n%s\n%s", j1, j2)
	}
}

func TestSession_ParallelMatchesSequential(t *testing.T) {
	var events []Event
	for i := range 8 {
		asset := fmt.Sprintf("A%d", i)
		events = append(events,
			buy(i, asset, 2, float64(10*i+1)),
			buy(i+1, asset, 3, 7),
		)
	}
	for i := range 8 {
		events = append(events, sell(500+i, fmt.Sprintf("A%d", i), 4, 99.99))
	}

	seq := newTestSession(t)
	par, err := NewSession(SessionOptions{ReportingCurrency: "USD", Strict: true, Workers: 4})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	want, err := seq.Run(Range{}, Carryover{}, events)
	if err != nil {
		t.Fatalf("sequential Run() error = %v", err)
	}
	got, err := par.Run(Range{}, Carryover{}, events)
	if err != nil {
		t.Fatalf("parallel Run() error = %v", err)
	}
	if diff := cmp.Diff(want, got, cmpOpts); diff != "" {
		t.Errorf("parallel Run() mismatch (-sequential +parallel):\n%s", diff)
	}
}

func TestSession_ParallelReportsEarliestError(t *testing.T) {
	events := []Event{
		buy(0, "A", 1, 1),
		buy(0, "B", 1, 1),
		sell(1, "B", 5, 1), // index 2: first failure
		sell(2, "A", 5, 1), // index 3
	}
	s, err := NewSession(SessionOptions{ReportingCurrency: "USD", Strict: true, Workers: 2})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	for range 10 {
		_, err := s.Run(Range{}, Carryover{}, events)
		var lotsErr *InsufficientLotsError
		if !errors.As(err, &lotsErr) || lotsErr.EventIndex != 2 {
			t.Fatalf("Run() error = %v, want shortfall on event #2", err)
		}
	}
}

func TestSession_AtomicOnShortfall(t *testing.T) {
	s := newTestSession(t)
	carry := NewCarryover(
		NewLot("l1", buy(0, "X", 2, 20)),
		NewLot("l2", buy(1, "X", 4, 40)),
	)

	res, err := s.Run(Range{}, carry, []Event{sell(10, "X", 10, 100)})
	var lotsErr *InsufficientLotsError
	if !errors.As(err, &lotsErr) {
		t.Fatalf("Run() error = %v, want *InsufficientLotsError", err)
	}
	if res != nil {
		t.Errorf("Run() returned a partial result")
	}
	if !lotsErr.Unmatched.Equal(Q(4)) || lotsErr.EventIndex != 0 {
		t.Errorf("error = %+v, want 4 unmatched on event #0", lotsErr)
	}
	if !carry.Position("X").Equal(Q(6)) || carry.Len() != 2 {
		t.Errorf("seed was modified: position %v over %d lots", carry.Position("X"), carry.Len())
	}
}

func TestSession_InvalidEvents(t *testing.T) {
	valid := buy(0, "X", 1, 10)
	testCases := []struct {
		name  string
		event Event
	}{
		{"zero quantity", NewAcquisition(onDay(1), "X", Q(0), USD(1))},
		{"negative quantity", NewDisposal(onDay(1), "X", Q(-1), USD(1))},
		{"negative value", NewAcquisition(onDay(1), "X", Q(1), USD(-1))},
		{"missing timestamp", NewAcquisition(time.Time{}, "X", Q(1), USD(1))},
		{"missing asset", NewAcquisition(onDay(1), "", Q(1), USD(1))},
		{"unknown kind", Event{Asset: "X", Quantity: Q(1), Value: USD(1), Time: onDay(1)}},
		{"other currency", NewAcquisition(onDay(1), "X", Q(1), EUR(1))},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSession(t)
			_, err := s.Run(Range{}, Carryover{}, []Event{valid, tc.event})
			var invalid *InvalidEventError
			if !errors.As(err, &invalid) {
				t.Fatalf("Run() error = %v, want *InvalidEventError", err)
			}
			if invalid.EventIndex != 1 {
				t.Errorf("EventIndex = %d, want 1", invalid.EventIndex)
			}
		})
	}
}

func TestSession_OutOfOrder(t *testing.T) {
	events := []Event{
		buy(10, "X", 1, 10),
		buy(0, "Y", 1, 10), // other asset: not out of order
		buy(5, "X", 1, 10),
		sell(20, "X", 2, 40),
	}

	strict := newTestSession(t)
	_, err := strict.Run(Range{}, Carryover{}, events)
	var orderErr *OutOfOrderEventError
	if !errors.As(err, &orderErr) {
		t.Fatalf("strict Run() error = %v, want *OutOfOrderEventError", err)
	}
	if orderErr.Asset != "X" || orderErr.EventIndex != 2 {
		t.Errorf("error = %+v, want X event #2", orderErr)
	}

	lenient, err := NewSession(SessionOptions{ReportingCurrency: "USD"})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	res, err := lenient.Run(Range{}, Carryover{}, events)
	if err != nil {
		t.Fatalf("lenient Run() error = %v", err)
	}
	// Caller order is kept: the day-10 lot is consumed first.
	if first := res.Summary.Portions[0]; !first.AcquiredAt.Equal(onDay(10)) {
		t.Errorf("first portion acquired %v, want %v", first.AcquiredAt, onDay(10))
	}
}

func TestSession_OutOfOrderAgainstCarryover(t *testing.T) {
	s := newTestSession(t)
	carry := NewCarryover(NewLot("l1", buy(100, "X", 1, 10)))
	_, err := s.Run(Range{}, carry, []Event{sell(50, "X", 1, 10)})
	var orderErr *OutOfOrderEventError
	if !errors.As(err, &orderErr) {
		t.Fatalf("Run() error = %v, want *OutOfOrderEventError", err)
	}
}

func TestSession_RangeRejectsOutsideEvents(t *testing.T) {
	s := newTestSession(t)
	r := Yearly.Range(DateOf(onDay(0)))
	_, err := s.Run(r, Carryover{}, []Event{buy(0, "X", 1, 1), buy(400, "X", 1, 1)})
	var invalid *InvalidEventError
	if !errors.As(err, &invalid) || invalid.EventIndex != 1 {
		t.Errorf("Run() error = %v, want *InvalidEventError on event #1", err)
	}
}

func TestSession_CurrencyAdoption(t *testing.T) {
	s, err := NewSession(SessionOptions{Strict: true})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	res, err := s.Run(Range{}, Carryover{}, []Event{
		NewAcquisition(onDay(0), "X", Q(1), M(10, "")),
		NewDisposal(onDay(1), "X", Q(1), EUR(15)),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Summary.Currency != "EUR" || !res.Summary.ShortTermGains.Equal(EUR(5)) {
		t.Errorf("summary = %s %v, want EUR 5", res.Summary.Currency, res.Summary.ShortTermGains.Decimal())
	}
}

func TestNewSession_InvalidCurrency(t *testing.T) {
	if _, err := NewSession(SessionOptions{ReportingCurrency: "XXXX"}); err == nil {
		t.Error("NewSession() with unknown currency returned no error")
	}
}

func TestSession_SeededPartialLot(t *testing.T) {
	// Only the quantities and the unit cost are known for the carried lot.
	carry := NewCarryover(TaxLot{
		ID:                "l1",
		Asset:             "X",
		OriginalQuantity:  Q(3),
		RemainingQuantity: Q(1),
		CostBasis:         USD(210),
		UnitCostBasis:     USD(70),
		AcquiredAt:        onDay(0),
	})
	res, err := newTestSession(t).Run(Range{}, carry, []Event{sell(500, "X", 1, 100)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	p := res.Summary.Portions[0]
	if !p.CostBasis.Equal(USD(70)) || p.Term != Long {
		t.Errorf("portion = %v cost, %v, want 70 cost, long", p.CostBasis.Decimal(), p.Term)
	}
	if !res.Summary.LongTermGains.Equal(USD(30)) {
		t.Errorf("LongTermGains = %v, want 30", res.Summary.LongTermGains.Decimal())
	}
}

func TestSession_RejectsInvalidCarriedLot(t *testing.T) {
	lot := NewLot("l1", buy(0, "X", 2, 20))
	lot.AcquiredAt = time.Time{}
	_, err := newTestSession(t).Run(Range{}, NewCarryover(lot), []Event{sell(5, "X", 1, 15)})
	var ierr *InvalidEventError
	if !errors.As(err, &ierr) || ierr.EventIndex != -1 {
		t.Fatalf("Run() error = %v, want an InvalidEventError on the carried lot", err)
	}
}
