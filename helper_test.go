package capgains

import "time"

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// EUR is a helper for test to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// day0 is the origin of test timelines.
var day0 = time.Date(2024, time.January, 1, 9, 30, 0, 0, time.UTC)

// onDay returns the time n days after day0.
func onDay(n int) time.Time { return day0.Add(time.Duration(n) * Day) }

func buy(n int, asset string, qty, cost float64) Event {
	return NewAcquisition(onDay(n), asset, Q(qty), USD(cost))
}

func sell(n int, asset string, qty, proceeds float64) Event {
	return NewDisposal(onDay(n), asset, Q(qty), USD(proceeds))
}

// newTestSession returns a strict, sequential USD session.
func newTestSession(t interface{ Fatalf(string, ...any) }) *Session {
	s, err := NewSession(SessionOptions{ReportingCurrency: "USD", Strict: true})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return s
}
