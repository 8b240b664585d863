package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// dateLayouts covers the date formats seen across Canadian bank statements.
var dateLayouts = []string{
	"02/01/2006",      // 15/01/2025 (TD)
	"2006/01/02",      // 2025/01/15 (RBC)
	"Jan 2 2006",      // Jan 15 2025
	"Jan 2, 2006",     // Jul 4, 2025 (RBC chequing)
	"January 2, 2006", // January 15, 2025
	"02-01-2006",      // 15-01-2025
	"2006-01-02",      // 2025-01-15 (ISO)
}

var monthDayPattern = regexp.MustCompile(`^([A-Za-z]{3})\.?\s+(\d{1,2})$`)

// ParseDate parses the date formats used by Canadian banks. Month-and-day
// dates ("Jul 4") carry no year, so refYear is assumed; statements that
// straddle a year boundary will drift, which is an accepted limitation.
func ParseDate(s string, refYear int) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if m := monthDayPattern.FindStringSubmatch(s); m != nil {
		normalized := fmt.Sprintf("%s %s %d", titleMonth(m[1]), m[2], refYear)
		if t, err := time.Parse("Jan 2 2006", normalized); err == nil {
			return t, nil
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
		// Statement text is frequently all-caps ("JAN 15").
		if t, err := time.Parse(layout, titleMonth(s)); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date: %s", s)
}

// titleMonth normalizes a leading month abbreviation to Go layout casing.
func titleMonth(s string) string {
	if len(s) < 3 {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:2]) + strings.ToLower(s[2:3]) + s[3:]
}

// defaultDate is the fallback for chequing units seen before any date
// context: the first of the reference month. Records built from it are
// flagged low-confidence so downstream consumers can route them to review.
func defaultDate(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
}
