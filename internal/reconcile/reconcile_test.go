package reconcile

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/frontdate/internal/caldate"
)

var today = caldate.New(2023, 8, 15)

func d(s string) caldate.Date {
	v, err := caldate.Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func dv(s string) Value { return DateValue(d(s)) }

func warningKinds(ws []Warning) []WarningKind {
	out := make([]WarningKind, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Kind)
	}
	return out
}

func TestHelpers(t *testing.T) {
	past := dv("1900-01-01")
	now := DateValue(today)

	assert.True(t, Equal(now, now))
	assert.True(t, LessThan(past, now))
	assert.False(t, LessThan(now, past))
	assert.False(t, LessThan(now, now))
	assert.True(t, LessThanOrEqual(now, now))
	assert.True(t, LessThanOrEqual(past, now))
	assert.False(t, LessThanOrEqual(now, past))
}

func TestHelpersRejectNonDates(t *testing.T) {
	now := DateValue(today)
	other := OtherValue("string")
	absent := Value{}

	for _, pair := range [][2]Value{{other, now}, {now, other}, {other, other}, {absent, now}, {now, absent}, {absent, absent}} {
		assert.False(t, LessThan(pair[0], pair[1]), "LessThan(%s, %s)", pair[0], pair[1])
		assert.False(t, Equal(pair[0], pair[1]), "Equal(%s, %s)", pair[0], pair[1])
		assert.False(t, LessThanOrEqual(pair[0], pair[1]), "LessThanOrEqual(%s, %s)", pair[0], pair[1])
	}
}

func TestDecisionTable(t *testing.T) {
	tests := []struct {
		name        string
		lastEdit    caldate.Date
		date        Value
		updated     Value
		wantDate    caldate.Date
		wantUpdated caldate.Date
		wantChanged bool
	}{
		{
			name:        "never committed, no dates",
			wantDate:    today,
			wantChanged: true,
		},
		{
			name:        "never committed, stale updated is cleared",
			updated:     dv("2023-01-01"),
			wantDate:    today,
			wantChanged: true,
		},
		{
			name:        "never committed, past date gets updated today",
			date:        dv("2021-05-01"),
			wantDate:    d("2021-05-01"),
			wantUpdated: today,
			wantChanged: true,
		},
		{
			name:        "never committed, date is today",
			date:        DateValue(today),
			wantDate:    today,
			wantChanged: false,
		},
		{
			name:        "never committed, date today clears updated",
			date:        DateValue(today),
			updated:     DateValue(today),
			wantDate:    today,
			wantChanged: true,
		},
		{
			name:        "committed, no date uses last edit",
			lastEdit:    d("2022-03-04"),
			wantDate:    d("2022-03-04"),
			wantUpdated: today,
			wantChanged: true,
		},
		{
			name:        "committed today, no date",
			lastEdit:    today,
			wantDate:    today,
			wantChanged: true,
		},
		{
			name:        "last edit after date stamps updated",
			lastEdit:    d("2021-06-01"),
			date:        dv("2021-01-01"),
			wantDate:    d("2021-01-01"),
			wantUpdated: today,
			wantChanged: true,
		},
		{
			name:        "last edit on date needs no updated",
			lastEdit:    d("2021-01-01"),
			date:        dv("2021-01-01"),
			wantDate:    d("2021-01-01"),
			wantChanged: false,
		},
		{
			name:        "last edit before date needs no updated",
			lastEdit:    d("2020-12-01"),
			date:        dv("2021-01-01"),
			wantDate:    d("2021-01-01"),
			wantChanged: false,
		},
		{
			name:        "updated covers last edit",
			lastEdit:    d("2021-01-15"),
			date:        dv("2021-01-01"),
			updated:     dv("2021-02-01"),
			wantDate:    d("2021-01-01"),
			wantUpdated: d("2021-02-01"),
			wantChanged: false,
		},
		{
			name:        "updated older than last edit",
			lastEdit:    d("2021-03-01"),
			date:        dv("2021-01-01"),
			updated:     dv("2021-02-01"),
			wantDate:    d("2021-01-01"),
			wantUpdated: today,
			wantChanged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Reconcile(Input{LastEdit: tt.lastEdit, Date: tt.date, Updated: tt.updated, Today: today})
			assert.Equal(t, tt.wantDate, res.Date)
			assert.Equal(t, tt.wantUpdated, res.Updated)
			assert.Equal(t, tt.wantChanged, res.Changed)
			assert.Empty(t, res.Warnings)
		})
	}
}

func TestScenarios(t *testing.T) {
	t.Run("A never committed without dates", func(t *testing.T) {
		res := Reconcile(Input{Today: today})
		assert.Equal(t, today, res.Date)
		assert.True(t, res.Updated.IsZero())
		assert.True(t, res.Changed)
	})

	t.Run("B never committed with past date", func(t *testing.T) {
		res := Reconcile(Input{Date: dv("2021-05-01"), Today: today})
		assert.Equal(t, d("2021-05-01"), res.Date)
		assert.Equal(t, today, res.Updated)
		assert.True(t, res.Changed)
	})

	t.Run("C last edit newer than date", func(t *testing.T) {
		res := Reconcile(Input{LastEdit: d("2021-06-01"), Date: dv("2021-01-01"), Today: today})
		assert.Equal(t, d("2021-01-01"), res.Date)
		assert.Equal(t, today, res.Updated)
		assert.True(t, res.Changed)
	})

	t.Run("D values already consistent", func(t *testing.T) {
		res := Reconcile(Input{
			LastEdit: d("2021-01-15"),
			Date:     dv("2021-01-01"),
			Updated:  dv("2021-02-01"),
			Today:    today,
		})
		assert.Equal(t, d("2021-01-01"), res.Date)
		assert.Equal(t, d("2021-02-01"), res.Updated)
		assert.False(t, res.Changed)
	})

	t.Run("E wrong typed date is treated as absent", func(t *testing.T) {
		res := Reconcile(Input{LastEdit: d("2022-03-04"), Date: OtherValue("string"), Today: today})
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, WrongType, res.Warnings[0].Kind)
		assert.Equal(t, FieldDate, res.Warnings[0].Field)
		assert.Equal(t, d("2022-03-04"), res.Date)
		assert.Equal(t, today, res.Updated)
		assert.True(t, res.Changed)
	})
}

func TestSanitization(t *testing.T) {
	tests := []struct {
		name         string
		in           Input
		wantDate     caldate.Date
		wantUpdated  caldate.Date
		wantWarnings []WarningKind
	}{
		{
			name:         "wrong typed updated",
			in:           Input{LastEdit: d("2021-01-01"), Date: dv("2021-01-01"), Updated: OtherValue("integer")},
			wantDate:     d("2021-01-01"),
			wantWarnings: []WarningKind{WrongType},
		},
		{
			name:         "updated before date is dropped",
			in:           Input{LastEdit: d("2021-01-01"), Date: dv("2021-02-01"), Updated: dv("2021-01-15")},
			wantDate:     d("2021-02-01"),
			wantWarnings: []WarningKind{UpdatedBeforeDate},
		},
		{
			name:         "future date is dropped",
			in:           Input{LastEdit: d("2022-01-01"), Date: dv("2024-01-01")},
			wantDate:     d("2022-01-01"),
			wantUpdated:  today,
			wantWarnings: []WarningKind{FutureDate},
		},
		{
			name:         "future updated drops updated and keeps date",
			in:           Input{LastEdit: d("2022-01-01"), Date: dv("2021-01-01"), Updated: dv("2024-01-01")},
			wantDate:     d("2021-01-01"),
			wantUpdated:  today,
			wantWarnings: []WarningKind{FutureDate},
		},
		{
			name:         "future date and updated both dropped",
			in:           Input{Date: dv("2024-01-01"), Updated: dv("2024-02-01")},
			wantDate:     today,
			wantWarnings: []WarningKind{FutureDate, FutureDate},
		},
		{
			name:         "future last edit is clamped to today",
			in:           Input{LastEdit: d("2023-09-01")},
			wantDate:     today,
			wantWarnings: []WarningKind{FutureLastEdit},
		},
		{
			name:         "both wrong typed",
			in:           Input{Date: OtherValue("string"), Updated: OtherValue("boolean")},
			wantDate:     today,
			wantWarnings: []WarningKind{WrongType, WrongType},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Today = today
			res := Reconcile(tt.in)
			assert.Equal(t, tt.wantDate, res.Date)
			assert.Equal(t, tt.wantUpdated, res.Updated)
			assert.Equal(t, tt.wantWarnings, warningKinds(res.Warnings))
			assert.True(t, res.Changed)
		})
	}
}

func TestRejectsMissingToday(t *testing.T) {
	assert.Panics(t, func() { Reconcile(Input{}) })
}

// slots enumerates every kind of input a field can hold relative to today.
func slots() map[string]Value {
	return map[string]Value{
		"absent":    {},
		"other":     OtherValue("string"),
		"long ago":  dv("2019-04-01"),
		"last year": dv("2022-08-15"),
		"yesterday": dv("2023-08-14"),
		"today":     DateValue(today),
		"tomorrow":  dv("2023-08-16"),
	}
}

func lastEdits() map[string]caldate.Date {
	return map[string]caldate.Date{
		"never":     {},
		"long ago":  d("2019-04-01"),
		"last year": d("2022-08-15"),
		"yesterday": d("2023-08-14"),
		"today":     today,
		"tomorrow":  d("2023-08-16"),
	}
}

func TestInvariantsAndIdempotence(t *testing.T) {
	for lastName, last := range lastEdits() {
		for dateName, date := range slots() {
			for updName, upd := range slots() {
				name := fmt.Sprintf("last=%s,date=%s,updated=%s", lastName, dateName, updName)
				t.Run(name, func(t *testing.T) {
					res := Reconcile(Input{LastEdit: last, Date: date, Updated: upd, Today: today})

					require.False(t, res.Date.IsZero())
					assert.False(t, res.Date.After(today), "date %s after today", res.Date)
					if !res.Updated.IsZero() {
						assert.False(t, res.Updated.After(today), "updated %s after today", res.Updated)
						assert.False(t, res.Date.After(res.Updated), "date %s after updated %s", res.Date, res.Updated)
					}

					again := Reconcile(Input{
						LastEdit: last,
						Date:     DateValue(res.Date),
						Updated:  OptionalDate(res.Updated),
						Today:    today,
					})
					assert.False(t, again.Changed, "second pass changed: %+v -> %+v", res, again)
					assert.Equal(t, res.Date, again.Date)
					assert.Equal(t, res.Updated, again.Updated)
				})
			}
		}
	}
}
