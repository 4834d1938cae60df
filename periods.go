package capgains

import (
	"errors"
	"time"
)

// CheckOrder returns an *OutOfOrderEventError for the first event older than
// the previous event of the same asset.
func CheckOrder(events []Event) error {
	last := make(map[string]time.Time)
	for i, e := range events {
		if prev, ok := last[e.Asset]; ok && e.Time.Before(prev) {
			return &OutOfOrderEventError{Asset: e.Asset, EventIndex: i, At: e.Time, Previous: prev}
		}
		last[e.Asset] = e.Time
	}
	return nil
}

// Span returns the range of days covered by events.
func Span(events []Event) (Range, bool) {
	if len(events) == 0 {
		return Range{}, false
	}
	from, to := DateOf(events[0].Time), DateOf(events[0].Time)
	for _, e := range events[1:] {
		d := DateOf(e.Time)
		if d.Before(from) {
			from = d
		}
		if d.After(to) {
			to = d
		}
	}
	return NewRange(from, to), true
}

// RunPeriods splits events into consecutive reporting periods and runs one
// session per period, each seeded with the carryover of the previous one.
// Periods without events still produce a (zero) result so that the chain of
// carryovers is complete.
//
// Event references are assigned once over the whole input, and indexes in
// returned errors refer to the events argument.
func (s *Session) RunPeriods(period Period, carry Carryover, events []Event) ([]*Result, error) {
	for i, e := range events {
		if err := e.Validate(""); err != nil {
			err.(*InvalidEventError).EventIndex = i
			return nil, err
		}
	}
	if s.opts.Strict {
		if err := CheckOrder(events); err != nil {
			return nil, err
		}
	}
	span, ok := Span(events)
	if !ok {
		return nil, nil
	}
	events = AssignRefs(events)

	var results []*Result
	for r := range span.Periods(period) {
		var sub []Event
		var global []int
		for i, e := range events {
			if r.Contains(DateOf(e.Time)) {
				sub = append(sub, e)
				global = append(global, i)
			}
		}
		res, err := s.Run(r, carry, sub)
		if err != nil {
			return results, reindex(err, global)
		}
		results = append(results, res)
		carry = res.Carryover
	}
	return results, nil
}

// reindex maps the event index of an engine error from a period input back
// to the full input.
func reindex(err error, global []int) error {
	remap := func(i *int) {
		if *i >= 0 && *i < len(global) {
			*i = global[*i]
		}
	}
	var lotsErr *InsufficientLotsError
	var orderErr *OutOfOrderEventError
	var invalidErr *InvalidEventError
	switch {
	case errors.As(err, &lotsErr):
		remap(&lotsErr.EventIndex)
	case errors.As(err, &orderErr):
		remap(&orderErr.EventIndex)
	case errors.As(err, &invalidErr):
		remap(&invalidErr.EventIndex)
	}
	return err
}
