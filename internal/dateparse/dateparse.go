// Package dateparse parses the month/year arguments accepted by purge and
// reporting commands.
package dateparse

import (
	"fmt"
	"strings"
	"time"
)

// ParseMonth parses a month input string into a calendar year and month.
// Uses the current time as the reference point.
//
// Supported formats:
//   - Exact months: "2025-03"
//   - Keywords: "this-month", "last-month"
//   - Month names: "march", "mar" (most recent occurrence, current month
//     allowed)
func ParseMonth(input string) (int, time.Month, error) {
	return ParseMonthFrom(input, time.Now())
}

// ParseMonthFrom parses a month input relative to the given reference time.
// This variant enables deterministic testing with a fixed "now".
func ParseMonthFrom(input string, now time.Time) (int, time.Month, error) {
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" {
		return 0, 0, fmt.Errorf("empty month input")
	}

	// Exact month: YYYY-MM
	if t, err := time.Parse("2006-01", input); err == nil {
		return t.Year(), t.Month(), nil
	}

	switch input {
	case "this-month":
		return now.Year(), now.Month(), nil
	case "last-month":
		// Anchor on the first so month arithmetic near month ends is stable
		prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
		return prev.Year(), prev.Month(), nil
	}

	// Month names: most recent occurrence at or before now
	months := map[string]time.Month{
		"january": time.January, "jan": time.January,
		"february": time.February, "feb": time.February,
		"march": time.March, "mar": time.March,
		"april": time.April, "apr": time.April,
		"may":  time.May,
		"june": time.June, "jun": time.June,
		"july": time.July, "jul": time.July,
		"august": time.August, "aug": time.August,
		"september": time.September, "sep": time.September,
		"october": time.October, "oct": time.October,
		"november": time.November, "nov": time.November,
		"december": time.December, "dec": time.December,
	}
	if m, ok := months[input]; ok {
		year := now.Year()
		if m > now.Month() {
			year--
		}
		return year, m, nil
	}

	return 0, 0, fmt.Errorf("unrecognized month format: %q (use YYYY-MM, a month name, this-month, or last-month)", input)
}
