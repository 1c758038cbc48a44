package util

import (
	"fmt"
	"time"
)

// DayLayout is the calendar-day format used by the analytics tables
const DayLayout = "2006-01-02"

// Calendar computes calendar-day boundaries in a fixed location so every
// window edge in a refresh cycle is derived the same way.
type Calendar struct {
	loc *time.Location
}

func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{loc: loc}
}

// LoadCalendar resolves an IANA zone name, "" meaning UTC
func LoadCalendar(name string) (Calendar, error) {
	if name == "" {
		return NewCalendar(time.UTC), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Calendar{}, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	return NewCalendar(loc), nil
}

func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// DayFloor returns the calendar day containing t
func (c Calendar) DayFloor(t time.Time) string {
	return t.In(c.Location()).Format(DayLayout)
}

// DaysAgo returns the calendar day n×24h before t
func (c Calendar) DaysAgo(t time.Time, n int) string {
	return c.DayFloor(t.Add(-time.Duration(n) * 24 * time.Hour))
}

// HoursAgo returns the calendar day containing t−h hours. This is a day
// floor, not a sliding clock: at 00:05 HoursAgo(t, 24) is yesterday, so a
// "last 24h" window built on it spans almost two full calendar days.
func (c Calendar) HoursAgo(t time.Time, h int) string {
	return c.DayFloor(t.Add(-time.Duration(h) * time.Hour))
}

// MonthStart returns the first day of the month containing t
func (c Calendar) MonthStart(t time.Time) string {
	local := t.In(c.Location())
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, c.Location()).Format(DayLayout)
}

// MonthKey returns YYYY-MM for the month containing t
func (c Calendar) MonthKey(t time.Time) string {
	return t.In(c.Location()).Format("2006-01")
}

// InRange reports whether day lies in [from, to]. Days compare
// lexicographically because DayLayout is zero padded.
func InRange(day, from, to string) bool {
	return day >= from && day <= to
}

// FormatDay normalizes a date scanned from the database to DayLayout.
// DATE columns come back as midnight UTC, so the value's own location is kept.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}
