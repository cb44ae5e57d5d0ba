package model

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Habit is one tracked behaviour with its cadence and completion history.
//
// The streak is cached and recomputed by every method that changes the
// completions or the cadence, so readers never observe a stale value.
type Habit struct {
	name        string
	startDate   time.Time
	frequency   Frequency
	unit        string
	targetValue *float64
	completed   []time.Time // ascending, no duplicates
	streak      int
}

// Progress is a read-only snapshot of a habit's counters.
type Progress struct {
	TotalCompletions int
	Streak           int
}

// NewHabit validates the raw fields and returns a habit with no completions.
func NewHabit(name, startDate, frequency, unit string, targetValue *float64) (*Habit, error) {
	cleanName, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	start, err := parseDateField("start_date", startDate)
	if err != nil {
		return nil, err
	}
	freq, err := ParseFrequency(frequency)
	if err != nil {
		return nil, err
	}
	if err := checkTarget(targetValue); err != nil {
		return nil, err
	}
	return &Habit{
		name:        cleanName,
		startDate:   start,
		frequency:   freq,
		unit:        normalizeUnit(unit),
		targetValue: copyTarget(targetValue),
	}, nil
}

// ParseTarget reads an optional numeric goal. Blank input means no goal.
func ParseTarget(raw string) (*float64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || !isFinite(parsed) {
		return nil, invalid("target_value", raw, "must be a number")
	}
	return &parsed, nil
}

func (h *Habit) Name() string         { return h.name }
func (h *Habit) StartDate() time.Time { return h.startDate }
func (h *Habit) Frequency() Frequency { return h.frequency }
func (h *Habit) Unit() string         { return h.unit }
func (h *Habit) Streak() int          { return h.streak }

// TargetValue returns the goal per period, or nil when none was set.
func (h *Habit) TargetValue() *float64 { return copyTarget(h.targetValue) }

// CompletedDates returns the completion dates in ascending order.
func (h *Habit) CompletedDates() []time.Time {
	return slices.Clone(h.completed)
}

// HasCompleted reports whether the habit was marked done on day.
func (h *Habit) HasCompleted(day time.Time) bool {
	_, found := h.search(DateOf(day))
	return found
}

// IsDue reports whether the habit should be done on day. A day that is
// already completed is never due. Daily habits are due every day from the
// start date, weekly ones only on whole-week offsets from it.
func (h *Habit) IsDue(day time.Time) bool {
	day = DateOf(day)
	if h.HasCompleted(day) {
		return false
	}
	offset := daysBetween(day, h.startDate)
	if offset < 0 {
		return false
	}
	switch h.frequency {
	case Daily:
		return true
	case Weekly:
		return offset%7 == 0
	default:
		return false
	}
}

// IsDueToday is IsDue for the local calendar date.
func (h *Habit) IsDueToday() bool {
	return h.IsDue(Today())
}

// MarkComplete records a completion on day and reports whether it was new.
// Any date is accepted, including ones off the cadence, so past days can be
// back-filled.
func (h *Habit) MarkComplete(day time.Time) bool {
	day = DateOf(day)
	idx, found := h.search(day)
	if found {
		return false
	}
	h.completed = slices.Insert(h.completed, idx, day)
	h.updateStreak()
	return true
}

// MarkCompleteToday is MarkComplete for the local calendar date.
func (h *Habit) MarkCompleteToday() bool {
	return h.MarkComplete(Today())
}

// Progress returns the total number of completions and the current streak.
func (h *Habit) Progress() Progress {
	return Progress{TotalCompletions: len(h.completed), Streak: h.streak}
}

// Rename changes the display name. Collections keyed by name must move the
// entry themselves.
func (h *Habit) Rename(name string) error {
	cleanName, err := normalizeName(name)
	if err != nil {
		return err
	}
	h.name = cleanName
	return nil
}

func (h *Habit) SetStartDate(start time.Time) {
	h.startDate = DateOf(start)
}

// SetFrequency changes the cadence; the streak is recomputed under the new rule.
func (h *Habit) SetFrequency(f Frequency) error {
	parsed, err := ParseFrequency(string(f))
	if err != nil {
		return err
	}
	h.frequency = parsed
	h.updateStreak()
	return nil
}

func (h *Habit) SetUnit(unit string) {
	h.unit = normalizeUnit(unit)
}

func (h *Habit) SetTargetValue(target *float64) error {
	if err := checkTarget(target); err != nil {
		return err
	}
	h.targetValue = copyTarget(target)
	return nil
}

// Clone returns an independent copy.
func (h *Habit) Clone() *Habit {
	c := *h
	c.completed = slices.Clone(h.completed)
	c.targetValue = copyTarget(h.targetValue)
	return &c
}

// updateStreak counts consecutive on-cadence completions backwards from the
// most recent one and stops at the first gap.
func (h *Habit) updateStreak() {
	if len(h.completed) == 0 {
		h.streak = 0
		return
	}

	step := h.frequency.step()
	count := 1
	current := h.completed[len(h.completed)-1]
	for i := len(h.completed) - 2; i >= 0; i-- {
		prev := h.completed[i]
		if daysBetween(current, prev) != step {
			break
		}
		count++
		current = prev
	}
	h.streak = count
}

func (h *Habit) search(day time.Time) (int, bool) {
	return slices.BinarySearchFunc(h.completed, day, func(a, b time.Time) int {
		return a.Compare(b)
	})
}

func normalizeName(name string) (string, error) {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return "", invalid("name", name, "must not be empty")
	}
	return clean, nil
}

func normalizeUnit(unit string) string {
	return strings.ToLower(strings.TrimSpace(unit))
}

func parseDateField(field, raw string) (time.Time, error) {
	d, err := ParseDate(raw)
	if err != nil {
		return time.Time{}, invalid(field, raw, "expected YYYY-MM-DD")
	}
	return d, nil
}

// checkTarget rejects NaN and infinities, which cannot be persisted.
func checkTarget(v *float64) error {
	if v != nil && !isFinite(*v) {
		return invalid("target_value", strconv.FormatFloat(*v, 'g', -1, 64), "must be a number")
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func copyTarget(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
