// Package dates parses the free-text dates used on the tee sheet
// ("Saturday June 20th") and formats the unpadded M/D/YYYY keys used for
// extra-day and holiday lookups.
package dates

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var ordinalSuffix = regexp.MustCompile(`st|nd|rd|th`)

// StripOrdinalSuffix removes st/nd/rd/th from a day token. The match is not
// anchored to the end of the token, mirroring the upstream site's tolerance
// for sloppy day strings.
func StripOrdinalSuffix(s string) string {
	return ordinalSuffix.ReplaceAllString(s, "")
}

// DaySuffix returns the English ordinal suffix for a day of month.
func DaySuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// ParseSlotDate parses a tee sheet date of the form "<weekday> <month> <day>"
// where the day may carry an ordinal suffix. The weekday is returned exactly
// as written for comparison against a user's playable days. The year is not
// present in the input, so the current year is assumed; dates scraped near a
// year boundary can resolve to the wrong year.
func ParseSlotDate(text string) (string, time.Time, error) {
	return parseSlotDateInYear(text, time.Now().Year())
}

func parseSlotDateInYear(text string, year int) (string, time.Time, error) {
	parts := strings.Fields(text)
	if len(parts) != 3 {
		return "", time.Time{}, fmt.Errorf("expected 3 tokens in date %q, got %d", text, len(parts))
	}

	dayOfWeek := parts[0]
	month := parts[1]
	day := StripOrdinalSuffix(parts[2])

	date, err := time.Parse("January 2 2006", fmt.Sprintf("%s %s %d", month, day, year))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("parsing date %q: %w", text, err)
	}
	return dayOfWeek, date, nil
}

// FormatDateKey renders a date as unpadded "M/D/YYYY". Both producers (extra
// playable days, holiday sets) and consumers (lookups) must use this exact
// format or membership checks silently miss.
func FormatDateKey(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", int(t.Month()), t.Day(), t.Year())
}

// FormatSlotDate is the inverse of ParseSlotDate: it renders a date the way
// the tee sheet writes it, e.g. "Saturday June 20th".
func FormatSlotDate(t time.Time) string {
	return fmt.Sprintf("%s %s %d%s", t.Weekday(), t.Month(), t.Day(), DaySuffix(t.Day()))
}

// ParseClockTime parses a 12-hour clock string like "9:00am" or "12:30pm"
// (case-insensitive, no leading zero required) into minutes since midnight.
func ParseClockTime(s string) (int, error) {
	t, err := time.Parse("3:04pm", strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return 0, fmt.Errorf("parsing clock time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
