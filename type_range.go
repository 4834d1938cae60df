package capgains

import "iter"

// Range is an inclusive span of days.
type Range struct{ From, To Date }

// NewRange orders its bounds.
func NewRange(from, to Date) Range {
	if to.Before(from) {
		return Range{From: to, To: from}
	}
	return Range{From: from, To: to}
}

// Contains reports whether date falls within r, bounds included.
func (r Range) Contains(date Date) bool { return !date.Before(r.From) && !date.After(r.To) }

// IsZero is true for the unset range.
func (r Range) IsZero() bool { return r.From.IsZero() && r.To.IsZero() }

func (r Range) String() string { return r.From.String() + ".." + r.To.String() }

// Periods yields, in order, every whole period p that overlaps r. The first
// and last may extend beyond r.
func (r Range) Periods(p Period) iter.Seq[Range] {
	return func(yield func(Range) bool) {
		for day := r.From; !day.After(r.To); {
			whole := p.Range(day)
			if !yield(whole) {
				return
			}
			day = whole.To.Add(1)
		}
	}
}
