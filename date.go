package capgains

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateFormat is the ISO-8601 layout dates are written with.
const DateFormat = "2006-01-02"

// readDateFormat also accepts single digit months and days.
const readDateFormat = "2006-1-2"

// Day is the unit of holding periods.
const Day = 24 * time.Hour

// Date is a calendar day in UTC. The zero Date is unset.
type Date struct {
	y int
	m time.Month
	d int
}

// NewDate normalizes year, month and day the way time.Date does, so
// NewDate(2024, 3, 0) is the last day of February.
func NewDate(year int, month time.Month, day int) Date {
	y, m, d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Date()
	return Date{y, m, d}
}

// DateOf returns the UTC day of a timestamp.
func DateOf(t time.Time) Date { return NewDate(t.UTC().Date()) }

// Today is the current UTC day.
func Today() Date { return DateOf(time.Now()) }

func (d Date) Year() int         { return d.y }
func (d Date) Month() time.Month { return d.m }
func (d Date) Day() int          { return d.d }
func (d Date) IsZero() bool      { return d == Date{} }

// Time returns midnight UTC of that day.
func (d Date) Time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

func (d Date) String() string { return d.Time().Format(DateFormat) }

// compare returns -1, 0 or +1 like cmp.Compare.
func (d Date) compare(x Date) int {
	switch {
	case d.y != x.y:
		return sign(d.y - x.y)
	case d.m != x.m:
		return sign(int(d.m - x.m))
	default:
		return sign(d.d - x.d)
	}
}

func sign(i int) int {
	switch {
	case i < 0:
		return -1
	case i > 0:
		return 1
	}
	return 0
}

func (d Date) Before(x Date) bool { return d.compare(x) < 0 }
func (d Date) After(x Date) bool  { return d.compare(x) > 0 }

// Add moves the date by n days.
func (d Date) Add(n int) Date { return NewDate(d.y, d.m, d.d+n) }

// monthsIn is the length in months of the calendar aligned periods.
var monthsIn = map[Period]int{Monthly: 1, Quarterly: 3, Yearly: 12}

// StartOf returns the first day of the period containing d. Weeks start on
// Monday.
func (d Date) StartOf(p Period) Date {
	switch p {
	case Daily:
		return d
	case Weekly:
		back := (int(d.Time().Weekday()) + 6) % 7
		return d.Add(-back)
	}
	n, ok := monthsIn[p]
	if !ok {
		panic(fmt.Sprintf("unknown period %d", p))
	}
	first := (int(d.m)-1)/n*n + 1
	return NewDate(d.y, time.Month(first), 1)
}

// EndOf returns the last day of the period containing d.
func (d Date) EndOf(p Period) Date {
	switch p {
	case Daily:
		return d
	case Weekly:
		return d.StartOf(Weekly).Add(6)
	}
	start := d.StartOf(p)
	return NewDate(start.y, start.m+time.Month(monthsIn[p]), 0)
}

var relativeDateRE = regexp.MustCompile(`^([+-])(\d+)([dwmqy])$`)

// ParseDate reads an ISO date ("2025-07-01", or leniently "2025-7-1"), "0d"
// for today, or an offset from today such as "-1y" or "+2w". Offsets need a
// sign.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "0d" {
		return Today(), nil
	}
	if m := relativeDateRE.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return Date{}, fmt.Errorf("invalid offset %q: %w", s, err)
		}
		if m[1] == "-" {
			n = -n
		}
		t := Today()
		switch m[3] {
		case "d":
			return t.Add(n), nil
		case "w":
			return t.Add(7 * n), nil
		case "m":
			return NewDate(t.y, t.m+time.Month(n), t.d), nil
		case "q":
			return NewDate(t.y, t.m+time.Month(3*n), t.d), nil
		default:
			return NewDate(t.y+n, t.m, t.d), nil
		}
	}
	t, err := time.Parse(readDateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want %s or an offset like -1m: %w", s, DateFormat, err)
	}
	return DateOf(t), nil
}
