// Package models defines the domain types for dagaz.
package models

import (
	"strings"
	"time"
)

// DayLayout is the storage and wire format of a calendar day.
const DayLayout = "2006-01-02"

// Day returns the calendar day of t as midnight UTC. The year, month and day are
// taken from t's own location, so a local "today" stays today after conversion.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDay renders a day as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return Day(t).Format(DayLayout)
}

// ParseDay parses a YYYY-MM-DD string into a day.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayLayout, strings.TrimSpace(s))
}

// AddDays moves a day by n calendar days.
func AddDays(day time.Time, n int) time.Time {
	return Day(day).AddDate(0, 0, n)
}

// AddMonths moves a day by n calendar months. When the target month is shorter,
// the day is clamped to its last day, so March 31 minus one month is February 28
// (or 29).
func AddMonths(day time.Time, n int) time.Time {
	y, m, d := Day(day).Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	return time.Date(first.Year(), first.Month(), min(d, last), 0, 0, 0, 0, time.UTC)
}

// CountWords returns the number of whitespace-separated words in content.
func CountWords(content string) int {
	return len(strings.Fields(content))
}
