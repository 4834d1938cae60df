package capgains

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"
)

// SessionOptions configures a Session.
type SessionOptions struct {
	// ReportingCurrency is the single fiat currency of every event value.
	ReportingCurrency string
	// Strict rejects events older than the previous event of the same asset
	// with an *OutOfOrderEventError. Otherwise events are processed in the
	// order given and a warning is logged.
	Strict bool
	// Workers is the maximum number of assets processed concurrently.
	// Values below 2 process assets sequentially.
	Workers int
	// Logger receives the session traces. Nil discards them.
	Logger *log.Logger
}

// Session computes the realized gains of reporting periods.
// A Session holds no state between runs: running it twice on the same input
// returns identical results.
type Session struct {
	opts   SessionOptions
	logger *log.Logger
}

// NewSession returns a Session configured with opts.
func NewSession(opts SessionOptions) (*Session, error) {
	if opts.ReportingCurrency != "" {
		if err := ValidateCurrency(opts.ReportingCurrency); err != nil {
			return nil, fmt.Errorf("invalid reporting currency: %w", err)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = &log.Logger{Level: log.PanicLevel, Writer: log.IOWriter{Writer: io.Discard}}
	}
	return &Session{opts: opts, logger: logger}, nil
}

// Result is the outcome of one period.
type Result struct {
	Range     Range
	Summary   PeriodSummary
	Carryover Carryover // open lots at the end of the period
	Closed    []TaxLot  // lots fully consumed during the period
}

// assetRun is the work and output of a single asset.
type assetRun struct {
	asset    string
	indexes  []int // indexes of the asset events in the session input
	portions []indexedPortion
	open     []TaxLot
	closed   []TaxLot
	err      error
}

type indexedPortion struct {
	index int // index of the disposal event
	MatchedPortion
}

// Run processes events, in order, against the lots carried over from the
// previous period and returns the period summary and the lots to carry over.
//
// Events must be ordered by time for each asset. If r is not zero, every
// event must fall within it. carry is never modified: on error no partial
// result is returned and carry is still the valid state to retry from.
func (s *Session) Run(r Range, carry Carryover, events []Event) (*Result, error) {
	start := time.Now()
	currency, err := s.currency(carry, events)
	if err != nil {
		return nil, err
	}
	for i, e := range events {
		if err := e.Validate(currency); err != nil {
			ierr := err.(*InvalidEventError)
			ierr.EventIndex = i
			return nil, ierr
		}
		if !r.IsZero() && !r.Contains(DateOf(e.Time)) {
			return nil, &InvalidEventError{EventIndex: i, Reason: fmt.Sprintf("%s %s on %s is outside %s", e.Kind, e.Asset, DateOf(e.Time), r)}
		}
	}

	runs := s.partition(carry, events)

	if s.opts.Workers > 1 && len(runs) > 1 {
		var g errgroup.Group
		g.SetLimit(s.opts.Workers)
		for _, run := range runs {
			g.Go(func() error {
				s.runAsset(run, currency, carry, events)
				return nil
			})
		}
		g.Wait()
	} else {
		for _, run := range runs {
			s.runAsset(run, currency, carry, events)
		}
	}

	// Report the error of the earliest event so that the outcome does not
	// depend on worker scheduling.
	var firstErr error
	firstIndex := len(events)
	for _, run := range runs {
		if run.err == nil {
			continue
		}
		if i := errorIndex(run.err); i < firstIndex || firstErr == nil {
			firstErr, firstIndex = run.err, i
		}
	}
	if firstErr != nil {
		s.logger.Warn().Err(firstErr).Str("range", r.String()).Msg("session aborted")
		return nil, firstErr
	}

	var merged []indexedPortion
	var open, closed []TaxLot
	for _, run := range runs {
		merged = append(merged, run.portions...)
		open = append(open, run.open...)
		closed = append(closed, run.closed...)
	}
	// Stable: portions of one disposal keep their FIFO order.
	slices.SortStableFunc(merged, func(a, b indexedPortion) int { return a.index - b.index })
	portions := make([]MatchedPortion, len(merged))
	for i, p := range merged {
		portions[i] = p.MatchedPortion
	}

	res := &Result{
		Range:     r,
		Summary:   Aggregate(r, currency, portions),
		Carryover: NewCarryover(open...),
		Closed:    closed,
	}
	s.logger.Info().
		Str("range", r.String()).
		Int("events", len(events)).
		Int("portions", len(portions)).
		Int("open_lots", res.Carryover.Len()).
		Stringer("net", res.Summary.NetGainLoss).
		Dur("elapsed", time.Since(start)).
		Msg("session completed")
	return res, nil
}

// currency returns the currency of the run: the reporting currency, or else
// the first currency found in the carryover or the events. Carried lots that
// are inconsistent or in another currency are rejected.
func (s *Session) currency(carry Carryover, events []Event) (string, error) {
	currency := s.opts.ReportingCurrency
	if currency == "" {
		for _, e := range events {
			if currency = e.Value.Currency(); currency != "" {
				break
			}
		}
	}
	for _, l := range carry.All() {
		if err := l.normalized().validate(); err != nil {
			return "", &InvalidEventError{EventIndex: -1, Reason: "carried " + err.Error()}
		}
		if c := l.CostBasis.Currency(); c != "" && currency == "" {
			currency = c
		} else if c != "" && c != currency {
			return "", &InvalidEventError{EventIndex: -1, Reason: fmt.Sprintf("carried lot %s of %s is in %s, want %s", l.ID, l.Asset, c, currency)}
		}
	}
	return currency, nil
}

// partition splits the session input per asset. Assets only present in the
// carryover are included so that their lots are carried over untouched.
func (s *Session) partition(carry Carryover, events []Event) []*assetRun {
	byAsset := make(map[string]*assetRun)
	for _, asset := range carry.Assets() {
		byAsset[asset] = &assetRun{asset: asset}
	}
	for i, e := range events {
		run, ok := byAsset[e.Asset]
		if !ok {
			run = &assetRun{asset: e.Asset}
			byAsset[e.Asset] = run
		}
		run.indexes = append(run.indexes, i)
	}
	runs := make([]*assetRun, 0, len(byAsset))
	for _, run := range byAsset {
		runs = append(runs, run)
	}
	slices.SortFunc(runs, func(a, b *assetRun) int {
		switch {
		case a.asset < b.asset:
			return -1
		case a.asset > b.asset:
			return 1
		}
		return 0
	})
	return runs
}

// runAsset processes the events of a single asset on its own LotStore.
func (s *Session) runAsset(run *assetRun, currency string, carry Carryover, events []Event) {
	store, err := carry.store(run.asset)
	if err != nil {
		run.err = &InvalidEventError{EventIndex: -1, Reason: "carried " + err.Error()}
		return
	}

	var last time.Time // newest event time processed for the asset
	for _, l := range store.Snapshot() {
		if l.AcquiredAt.After(last) {
			last = l.AcquiredAt
		}
	}

	for _, i := range run.indexes {
		e := events[i]
		if e.Time.Before(last) {
			if s.opts.Strict {
				run.err = &OutOfOrderEventError{Asset: e.Asset, EventIndex: i, At: e.Time, Previous: last}
				return
			}
			s.logger.Warn().Str("asset", e.Asset).Int("index", i).Time("at", e.Time).Time("previous", last).Msg("event out of order")
		} else {
			last = e.Time
		}

		ref := e.Ref(i)
		if e.Value.Currency() == "" {
			e.Value = e.Value.WithCurrency(currency)
		}
		switch e.Kind {
		case Acquisition:
			if err := store.AddLot(NewLot(ref, e)); err != nil {
				run.err = &InvalidEventError{EventIndex: i, Reason: err.Error()}
				return
			}
		case Disposal:
			portions, err := Match(store, ref, e)
			if err != nil {
				if ierr, ok := err.(*InsufficientLotsError); ok {
					ierr.EventIndex = i
				}
				run.err = err
				return
			}
			for _, p := range portions {
				s.logger.Debug().
					Str("asset", p.Asset).
					Str("disposal", p.DisposalID).
					Str("lot", p.LotID).
					Stringer("quantity", p.Quantity).
					Stringer("gain", p.GainLoss).
					Stringer("term", p.Term).
					Msg("matched")
				run.portions = append(run.portions, indexedPortion{index: i, MatchedPortion: p})
			}
		}
	}
	run.open = store.Snapshot()
	run.closed = store.Closed()
}

// errorIndex returns the event index carried by the engine errors.
func errorIndex(err error) int {
	switch e := err.(type) {
	case *InsufficientLotsError:
		return e.EventIndex
	case *OutOfOrderEventError:
		return e.EventIndex
	case *InvalidEventError:
		return e.EventIndex
	}
	return -1
}
