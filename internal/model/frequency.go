package model

import "strings"

// Frequency is the cadence a habit repeats on.
type Frequency string

const (
	Daily  Frequency = "daily"
	Weekly Frequency = "weekly"
)

// Frequencies lists the accepted cadences in display order.
var Frequencies = []Frequency{Daily, Weekly}

// ParseFrequency accepts "daily" or "weekly" in any case.
func ParseFrequency(raw string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(raw))); f {
	case Daily, Weekly:
		return f, nil
	default:
		return "", invalid("frequency", raw, "must be 'daily' or 'weekly'")
	}
}

// step is the gap in days between two consecutive on-cadence completions.
// Unknown cadences return 0, which never matches a real gap.
func (f Frequency) step() int {
	switch f {
	case Daily:
		return 1
	case Weekly:
		return 7
	default:
		return 0
	}
}

// Noun is the period word used when rendering streaks.
func (f Frequency) Noun() string {
	if f == Weekly {
		return "week"
	}
	return "day"
}
