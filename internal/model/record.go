package model

import "slices"

// Record is the flat persisted form of a Habit. Dates are ISO-8601 strings.
type Record struct {
	Name           string   `json:"name"`
	StartDate      string   `json:"start_date"`
	Frequency      string   `json:"frequency"`
	Unit           string   `json:"unit"`
	TargetValue    *float64 `json:"target_value"`
	CompletedDates []string `json:"completed_dates"`
	Streak         int      `json:"streak"`
}

// Record serializes the habit. Completed dates are written in ascending order.
func (h *Habit) Record() Record {
	dates := make([]string, 0, len(h.completed))
	for _, d := range h.completed {
		dates = append(dates, FormatDate(d))
	}
	return Record{
		Name:           h.name,
		StartDate:      FormatDate(h.startDate),
		Frequency:      string(h.frequency),
		Unit:           h.unit,
		TargetValue:    copyTarget(h.targetValue),
		CompletedDates: dates,
		Streak:         h.streak,
	}
}

// FromRecord restores a habit. The stored streak is trusted as-is and not
// recomputed; duplicate completion dates collapse into one.
func FromRecord(r Record) (*Habit, error) {
	h, err := NewHabit(r.Name, r.StartDate, r.Frequency, r.Unit, r.TargetValue)
	if err != nil {
		return nil, err
	}
	for _, raw := range r.CompletedDates {
		d, err := parseDateField("completed_dates", raw)
		if err != nil {
			return nil, err
		}
		if idx, found := h.search(d); !found {
			h.completed = slices.Insert(h.completed, idx, d)
		}
	}
	h.streak = r.Streak
	return h, nil
}
