package model

import (
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date format used on disk and in user input.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
	time.RFC3339,
}

// DateOf strips the clock from t and returns its calendar date, read in t's own
// location, as midnight UTC. All habit arithmetic works on these values.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today is the calendar date of now in the local time zone.
func Today() time.Time {
	return DateOf(time.Now())
}

// ParseDate reads an ISO-8601 date. Timestamps are accepted and truncated to their date.
func ParseDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return DateOf(t), nil
		}
	}
	return time.Time{}, invalid("date", raw, "expected YYYY-MM-DD")
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// daysBetween returns later - earlier in whole days. Both must come from DateOf.
func daysBetween(later, earlier time.Time) int {
	return int(later.Sub(earlier) / (24 * time.Hour))
}
