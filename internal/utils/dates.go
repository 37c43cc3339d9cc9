package utils

import (
	"fmt"
	"time"
)

// DateLayout is the canonical calendar-date format used across databases
// and the API. Dates carry no time zone; values are stored at midnight UTC.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.Time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a time.Time as a canonical YYYY-MM-DD string.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Midnight truncates a time to midnight UTC so that calendar-date
// comparisons are exact regardless of the caller's clock.
func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddMonths advances a calendar date by n months, normalizing per
// time.AddDate semantics (Jan 31 + 1 month = Mar 2/3).
func AddMonths(t time.Time, n int) time.Time {
	return Midnight(t.AddDate(0, n, 0))
}

// DaysBetween returns the number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Midnight(b).Sub(Midnight(a)).Hours() / 24)
}
