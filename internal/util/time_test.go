package util

import (
	"testing"
	"time"
)

func TestCalendarBoundaries(t *testing.T) {
	cal := NewCalendar(time.UTC)
	now := time.Date(2024, time.March, 1, 0, 5, 0, 0, time.UTC)

	if got := cal.DayFloor(now); got != "2024-03-01" {
		t.Fatalf("DayFloor = %s", got)
	}
	if got := cal.DaysAgo(now, 1); got != "2024-02-29" {
		t.Fatalf("DaysAgo(1) = %s, want leap day", got)
	}
	if got := cal.HoursAgo(now, 24); got != "2024-02-29" {
		t.Fatalf("HoursAgo(24) = %s", got)
	}
	if got := cal.DaysAgo(now, 7); got != "2024-02-23" {
		t.Fatalf("DaysAgo(7) = %s", got)
	}
	if got := cal.MonthStart(now); got != "2024-03-01" {
		t.Fatalf("MonthStart = %s", got)
	}
	if got := cal.MonthKey(now); got != "2024-03" {
		t.Fatalf("MonthKey = %s", got)
	}
}

func TestCalendarUsesLocation(t *testing.T) {
	cal := NewCalendar(time.FixedZone("UTC-5", -5*60*60))
	now := time.Date(2024, time.June, 1, 3, 0, 0, 0, time.UTC)

	if got := cal.DayFloor(now); got != "2024-05-31" {
		t.Fatalf("DayFloor = %s, want previous local day", got)
	}
	if got := cal.MonthStart(now); got != "2024-05-01" {
		t.Fatalf("MonthStart = %s", got)
	}
}

func TestLoadCalendar(t *testing.T) {
	cal, err := LoadCalendar("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cal.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", cal.Location())
	}

	if _, err := LoadCalendar("Not/AZone"); err == nil {
		t.Fatal("expected error for unknown zone")
	}
}

func TestZeroCalendarIsUTC(t *testing.T) {
	var cal Calendar
	if got := cal.DayFloor(time.Date(2024, 1, 2, 23, 0, 0, 0, time.UTC)); got != "2024-01-02" {
		t.Fatalf("DayFloor = %s", got)
	}
}

func TestInRange(t *testing.T) {
	if !InRange("2024-05-08", "2024-05-08", "2024-05-15") {
		t.Fatal("lower bound is inclusive")
	}
	if !InRange("2024-05-15", "2024-05-08", "2024-05-15") {
		t.Fatal("upper bound is inclusive")
	}
	if InRange("2024-05-16", "2024-05-08", "2024-05-15") {
		t.Fatal("day after range must be excluded")
	}
}
