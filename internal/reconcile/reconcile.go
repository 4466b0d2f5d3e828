// Package reconcile derives a consistent "date"/"updated" pair for a content
// file from its last git edit and the values already in its front matter.
//
// Reconcile is pure: it does no I/O and reports sanitization events as
// Warnings in its Result instead of logging them.
package reconcile

import (
	"fmt"

	"github.com/starford/frontdate/internal/caldate"
)

// Front matter keys managed by the reconciler.
const (
	FieldDate     = "date"
	FieldUpdated  = "updated"
	FieldLastEdit = "last_edit"
)

// WarningKind classifies a sanitization event.
type WarningKind string

const (
	// WrongType: the field holds something other than a date and is ignored.
	WrongType WarningKind = "wrong_type"
	// UpdatedBeforeDate: "updated" predates "date" and is ignored.
	UpdatedBeforeDate WarningKind = "updated_before_date"
	// FutureDate: the field is after today and is ignored.
	FutureDate WarningKind = "future_date"
	// FutureLastEdit: the last commit is dated after today and is treated as today.
	FutureLastEdit WarningKind = "future_last_edit"
)

// Warning describes one value the reconciler refused to trust.
type Warning struct {
	Kind  WarningKind
	Field string
	Value string
}

// Message returns a human readable description of w.
func (w Warning) Message() string {
	switch w.Kind {
	case WrongType:
		return fmt.Sprintf("non date value found for `%s`, ignoring it", w.Field)
	case UpdatedBeforeDate:
		return "`updated` is before `date`, ignoring `updated`"
	case FutureDate:
		return fmt.Sprintf("`%s` is set in the future, ignoring it", w.Field)
	case FutureLastEdit:
		return "last commit is dated in the future, using today instead"
	default:
		return string(w.Kind)
	}
}

// Input is the state of one file before reconciliation.
type Input struct {
	// LastEdit is the date of the last commit touching the file; zero if
	// the file was never committed.
	LastEdit caldate.Date
	Date     Value
	Updated  Value
	Today    caldate.Date
}

// Result is the reconciled state. Updated is zero when the key should be
// absent. Changed is false when the front matter already holds the result.
type Result struct {
	Date     caldate.Date
	Updated  caldate.Date
	Changed  bool
	Warnings []Warning
}

// Reconcile computes the new "date"/"updated" values for in.
//
// The result always satisfies Date <= Today, and when Updated is set,
// Date <= Updated <= Today. Feeding a result back in with the same LastEdit
// and Today yields Changed == false.
func Reconcile(in Input) Result {
	mustHold(!in.Today.IsZero(), "today is required")

	var warnings []Warning
	warn := func(kind WarningKind, field string, v Value) {
		warnings = append(warnings, Warning{Kind: kind, Field: field, Value: v.String()})
	}

	today := DateValue(in.Today)
	last := OptionalDate(in.LastEdit)
	if LessThan(today, last) {
		warn(FutureLastEdit, FieldLastEdit, last)
		last = today
	}

	date, updated := in.Date, in.Updated

	if date.Present() && !date.IsDate() {
		warn(WrongType, FieldDate, date)
		date = Value{}
	}
	if updated.Present() && !updated.IsDate() {
		warn(WrongType, FieldUpdated, updated)
		updated = Value{}
	}

	if date.Present() && updated.Present() && LessThan(updated, date) {
		warn(UpdatedBeforeDate, FieldUpdated, updated)
		updated = Value{}
	}

	if date.Present() && LessThan(today, date) {
		warn(FutureDate, FieldDate, date)
		date = Value{}
	}
	if updated.Present() && LessThan(today, updated) {
		warn(FutureDate, FieldUpdated, updated)
		updated = Value{}
	}

	mustHold(!date.Present() || LessThanOrEqual(date, today), "date %s after today %s", date, today)
	mustHold(!updated.Present() || LessThanOrEqual(updated, today), "updated %s after today %s", updated, today)
	mustHold(!date.Present() || !updated.Present() || LessThanOrEqual(date, updated), "date %s after updated %s", date, updated)

	newDate, newUpdated := decide(last, date, updated, today)

	mustHold(LessThanOrEqual(newDate, today), "new date %s after today %s", newDate, today)
	mustHold(!newUpdated.Present() || (LessThanOrEqual(newDate, newUpdated) && LessThanOrEqual(newUpdated, today)),
		"new updated %s out of range [%s, %s]", newUpdated, newDate, today)

	res := Result{
		Changed:  !unchanged(in.Date, in.Updated, newDate, newUpdated),
		Warnings: warnings,
	}
	res.Date, _ = newDate.Date()
	res.Updated, _ = newUpdated.Date()
	return res
}

// decide applies the merge table to sanitized values. "date" is kept once
// set; "updated" moves to today only when the last edit is more recent than
// what the front matter claims.
func decide(last, date, updated, today Value) (newDate, newUpdated Value) {
	switch {
	case !last.Present() && !date.Present():
		return today, Value{}
	case !last.Present():
		if Equal(date, today) {
			return date, Value{}
		}
		return date, today
	case !date.Present():
		if Equal(last, today) {
			return last, Value{}
		}
		return last, today
	case !updated.Present():
		if LessThanOrEqual(last, date) {
			return date, Value{}
		}
		return date, today
	default:
		if LessThanOrEqual(last, updated) {
			return date, updated
		}
		return date, today
	}
}

// unchanged compares the literal original values with the new ones by
// calendar date.
func unchanged(origDate, origUpdated, newDate, newUpdated Value) bool {
	if !Equal(origDate, newDate) {
		return false
	}
	if !origUpdated.Present() {
		return !newUpdated.Present()
	}
	return newUpdated.Present() && Equal(origUpdated, newUpdated)
}

func mustHold(cond bool, format string, args ...any) {
	if !cond {
		panic("reconcile: invariant violated: " + fmt.Sprintf(format, args...))
	}
}
