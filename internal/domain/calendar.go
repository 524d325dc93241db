package domain

import "time"

// Calendar evaluates day, week and month boundaries in a fixed location.
// The zero value uses time.Local.
type Calendar struct {
	Location *time.Location
}

// NewCalendar returns a calendar bound to loc. A nil loc means time.Local.
func NewCalendar(loc *time.Location) Calendar {
	return Calendar{Location: loc}
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// civilDate strips the clock so day arithmetic is immune to DST shifts.
func (c Calendar) civilDate(t time.Time) time.Time {
	t = t.In(c.loc())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar day.
func (c Calendar) SameDay(a, b time.Time) bool {
	return c.civilDate(a).Equal(c.civilDate(b))
}

// SameWeek reports whether a and b fall in the same ISO 8601 week.
func (c Calendar) SameWeek(a, b time.Time) bool {
	ay, aw := a.In(c.loc()).ISOWeek()
	by, bw := b.In(c.loc()).ISOWeek()
	return ay == by && aw == bw
}

// SameMonth reports whether a and b fall in the same calendar month.
func (c Calendar) SameMonth(a, b time.Time) bool {
	a, b = a.In(c.loc()), b.In(c.loc())
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// DaysBetween returns the number of whole calendar days from a to b.
// The result is negative when b is on an earlier day than a.
func (c Calendar) DaysBetween(a, b time.Time) int {
	return int(c.civilDate(b).Sub(c.civilDate(a)).Hours() / 24)
}

// StartOfDay returns midnight of t's day in the calendar location.
func (c Calendar) StartOfDay(t time.Time) time.Time {
	t = t.In(c.loc())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc())
}
