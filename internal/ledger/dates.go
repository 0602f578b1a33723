package ledger

import (
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// EpochFloor is the earliest representable date. Every currency carries a
// seed rate effective at this date so that historical lookups always resolve.
var EpochFloor = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)

func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Day truncates t to a calendar day in UTC.
func Day(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// ParseMonth parses "2006-01" and returns the first day of that month.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return t, nil
}

func FormatDate(t time.Time) string  { return t.Format(DateLayout) }
func FormatMonth(t time.Time) string { return t.Format(MonthLayout) }

func FirstDayOfMonth(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), 1)
}

func LastDayOfMonth(t time.Time) time.Time {
	return FirstDayOfMonth(t).AddDate(0, 1, -1)
}

func FirstDayOfYear(t time.Time) time.Time {
	return Date(t.Year(), time.January, 1)
}

func LastDayOfYear(t time.Time) time.Time {
	return Date(t.Year(), time.December, 31)
}

// NextMonth returns the first day of the month after t.
func NextMonth(t time.Time) time.Time {
	return FirstDayOfMonth(t).AddDate(0, 1, 0)
}

// LastDayOfPreviousMonth returns the day before the first of t's month.
func LastDayOfPreviousMonth(t time.Time) time.Time {
	return FirstDayOfMonth(t).AddDate(0, 0, -1)
}

// SameMonth reports whether a and b fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
