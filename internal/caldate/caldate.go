// Package caldate provides a calendar date type with no time-of-day or offset.
package caldate

import (
	"cmp"
	"fmt"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Layout is the textual form of a Date, also the TOML local-date syntax.
const Layout = "2006-01-02"

// Date is a (year, month, day) triple. The zero value means "no date".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New returns the Date for the given fields.
func New(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// FromTime returns the calendar date of t in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Parse parses a YYYY-MM-DD string.
func Parse(s string) (Date, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("caldate: invalid date %q: expected YYYY-MM-DD", s)
	}
	return FromTime(t), nil
}

// FromTOML extracts the calendar date from a value decoded by go-toml.
// Local dates, local date-times and offset date-times carry a date; the
// offset is ignored and the date is taken as written. Everything else,
// including local times, reports false.
func FromTOML(v any) (Date, bool) {
	switch tv := v.(type) {
	case toml.LocalDate:
		return Date{Year: tv.Year, Month: time.Month(tv.Month), Day: tv.Day}, true
	case toml.LocalDateTime:
		return Date{Year: tv.Year, Month: time.Month(tv.Month), Day: tv.Day}, true
	case time.Time:
		return FromTime(tv), true
	default:
		return Date{}, false
	}
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Compare returns -1, 0 or +1 ordering d against o by (year, month, day).
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmp.Compare(d.Year, o.Year)
	case d.Month != o.Month:
		return cmp.Compare(d.Month, o.Month)
	default:
		return cmp.Compare(d.Day, o.Day)
	}
}

// Equal reports whether d and o name the same day.
func (d Date) Equal(o Date) bool { return d == o }

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool { return d.Compare(o) > 0 }

// String formats d as YYYY-MM-DD; the zero Date formats as "".
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
