package capgains

import (
	"fmt"
	"time"
)

// Term is the holding-period classification of a matched portion.
type Term int

const (
	// Short is a holding period of at most LongTermDays days.
	Short Term = iota
	// Long is a holding period strictly longer than LongTermDays days.
	Long
)

// LongTermDays is the number of elapsed days a lot must be held beyond to be long-term.
const LongTermDays = 365

func (t Term) String() string {
	switch t {
	case Short:
		return "short"
	case Long:
		return "long"
	default:
		return "unknown"
	}
}

// ParseTerm parses a string into a Term.
func ParseTerm(s string) (Term, error) {
	switch s {
	case "short":
		return Short, nil
	case "long":
		return Long, nil
	default:
		return 0, fmt.Errorf("unknown term: %q", s)
	}
}

func (t Term) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Term) UnmarshalText(text []byte) (err error) {
	*t, err = ParseTerm(string(text))
	return err
}

// HoldingDays returns the number of whole days elapsed between two timestamps.
// Partial days are truncated, so 365 days and 23 hours count as 365.
func HoldingDays(acquiredAt, disposedAt time.Time) int {
	return int(disposedAt.Sub(acquiredAt) / Day)
}

// Classify returns the term of a lot acquired at acquiredAt and disposed at
// disposedAt, together with the holding days it is based on.
// Exactly 365 elapsed days is Short, 366 or more is Long.
func Classify(acquiredAt, disposedAt time.Time) (Term, int) {
	days := HoldingDays(acquiredAt, disposedAt)
	if days > LongTermDays {
		return Long, days
	}
	return Short, days
}
