// This file implements the date windows used by the transaction and journal
// filters. Each range is a strategy looked up from a registry, so a new range
// only needs a new Window implementation.

package query

import "time"

// DateRange names a trailing window ending now.
type DateRange string

const (
	RangeAll   DateRange = "all"
	RangeToday DateRange = "today"
	RangeWeek  DateRange = "week"
	RangeMonth DateRange = "month"
	RangeYear  DateRange = "year"
)

// ParseDateRange maps a name onto a DateRange; blank input means RangeAll.
func ParseDateRange(s string) (DateRange, error) {
	return parseEnum("date range", s, RangeAll, RangeAll, RangeToday, RangeWeek, RangeMonth, RangeYear)
}

// Window decides whether an instant falls inside a window anchored at now.
type Window interface {
	Contains(at, now time.Time) bool
}

// Unbounded contains every instant.
type Unbounded struct{}

func (Unbounded) Contains(_, _ time.Time) bool { return true }

// Trailing contains instants at or after now minus the given span.
type Trailing struct {
	Years, Months, Days int
}

func (w Trailing) Contains(at, now time.Time) bool {
	if at.IsZero() {
		return false
	}
	return !at.Before(now.AddDate(-w.Years, -w.Months, -w.Days))
}

// SinceStartOfDay contains instants from local midnight of now onwards.
type SinceStartOfDay struct{}

func (SinceStartOfDay) Contains(at, now time.Time) bool {
	if at.IsZero() {
		return false
	}
	return !at.Before(StartOfDay(now))
}

// CalendarDay contains instants on the same calendar day as now.
type CalendarDay struct{}

func (CalendarDay) Contains(at, now time.Time) bool {
	if at.IsZero() {
		return false
	}
	at = at.In(now.Location())
	y1, m1, d1 := at.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// CalendarWeek contains instants in the calendar week of now.
// Start is the first day of the week; the zero value is Sunday.
type CalendarWeek struct {
	Start time.Weekday
}

func (w CalendarWeek) Contains(at, now time.Time) bool {
	if at.IsZero() {
		return false
	}
	from := StartOfWeek(now, w.Start)
	to := from.AddDate(0, 0, 7)
	return !at.Before(from) && at.Before(to)
}

// CalendarMonth contains instants in the calendar month of now.
type CalendarMonth struct{}

func (CalendarMonth) Contains(at, now time.Time) bool {
	if at.IsZero() {
		return false
	}
	at = at.In(now.Location())
	return at.Year() == now.Year() && at.Month() == now.Month()
}

// trailingWindows maps each DateRange to its window.
var trailingWindows = map[DateRange]Window{
	RangeAll:   Unbounded{},
	RangeToday: SinceStartOfDay{},
	RangeWeek:  Trailing{Days: 7},
	RangeMonth: Trailing{Months: 1},
	RangeYear:  Trailing{Years: 1},
}

// WindowFor returns the window of r. The zero value behaves like RangeAll;
// an unknown range yields a window that contains nothing.
func WindowFor(r DateRange) Window {
	if r == "" {
		return Unbounded{}
	}
	if w, ok := trailingWindows[r]; ok {
		return w
	}
	return empty{}
}

type empty struct{}

func (empty) Contains(_, _ time.Time) bool { return false }

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// StartOfWeek returns midnight of the first day of t's week.
func StartOfWeek(t time.Time, start time.Weekday) time.Time {
	d := StartOfDay(t)
	offset := (int(d.Weekday()) - int(start) + 7) % 7
	return d.AddDate(0, 0, -offset)
}
