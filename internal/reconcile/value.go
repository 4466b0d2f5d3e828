package reconcile

import "github.com/starford/frontdate/internal/caldate"

// Value is a front matter slot for "date" or "updated". The zero Value is
// absent. A present Value either holds a calendar date or a value of some
// other type, which the reconciler treats as missing data.
type Value struct {
	present bool
	isDate  bool
	date    caldate.Date
	kind    string
}

// DateValue returns a present Value holding d.
func DateValue(d caldate.Date) Value {
	return Value{present: true, isDate: true, date: d, kind: "date"}
}

// OtherValue returns a present Value of a non-date type. kind names the
// type for warnings, e.g. "string".
func OtherValue(kind string) Value {
	return Value{present: true, kind: kind}
}

// OptionalDate returns DateValue(d), or the absent Value when d is zero.
func OptionalDate(d caldate.Date) Value {
	if d.IsZero() {
		return Value{}
	}
	return DateValue(d)
}

// Present reports whether the slot holds anything.
func (v Value) Present() bool { return v.present }

// IsDate reports whether the slot holds a calendar date.
func (v Value) IsDate() bool { return v.isDate }

// Date returns the held date and whether there is one.
func (v Value) Date() (caldate.Date, bool) { return v.date, v.isDate }

func (v Value) String() string {
	switch {
	case !v.present:
		return "<absent>"
	case v.isDate:
		return v.date.String()
	default:
		return "<" + v.kind + ">"
	}
}

// LessThan reports whether a and b are both dates and a < b.
func LessThan(a, b Value) bool {
	if !a.isDate || !b.isDate {
		return false
	}
	return a.date.Before(b.date)
}

// Equal reports whether a and b are both dates naming the same day.
// Non-dates are never equal to anything, including each other.
func Equal(a, b Value) bool {
	if !a.isDate || !b.isDate {
		return false
	}
	return a.date.Equal(b.date)
}

// LessThanOrEqual reports whether a and b are both dates and a <= b.
func LessThanOrEqual(a, b Value) bool {
	return LessThan(a, b) || Equal(a, b)
}
