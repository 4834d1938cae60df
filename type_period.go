package capgains

import (
	"fmt"
	"strings"
)

// Period is a calendar aligned reporting period.
type Period int

const (
	Daily Period = iota
	Weekly
	Monthly
	Quarterly
	Yearly
)

var periodNames = [...]string{"daily", "weekly", "monthly", "quarterly", "yearly"}

func (p Period) String() string {
	if p < Daily || p > Yearly {
		return fmt.Sprintf("Period(%d)", int(p))
	}
	return periodNames[p]
}

// Range returns the whole period containing d.
func (p Period) Range(d Date) Range { return Range{From: d.StartOf(p), To: d.EndOf(p)} }

var periodNouns = [...]string{"day", "week", "month", "quarter", "year"}

// ParsePeriod accepts the adjective ("monthly") or the noun ("month").
func ParsePeriod(s string) (Period, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p := Daily; p <= Yearly; p++ {
		if s == periodNames[p] || s == periodNouns[p] {
			return p, nil
		}
	}
	return Daily, fmt.Errorf("unknown period %q, want one of %s", s, strings.Join(periodNames[:], ", "))
}
