package service

import "habit-tracker/internal/model"

// StruggleThreshold is the streak below which a habit counts as struggling.
const StruggleThreshold = 2

// HabitSource is the read side of the tracker.
type HabitSource interface {
	All() []*model.Habit
	ByFrequency(freq string) []*model.Habit
}

// Analytics answers read-only questions about the tracked habits.
type Analytics struct {
	source HabitSource
}

func NewAnalytics(source HabitSource) *Analytics {
	return &Analytics{source: source}
}

// LongestStreak returns the highest current streak. ok is false when there
// are no habits, which is different from a real streak of 0.
func (a *Analytics) LongestStreak() (streak int, ok bool) {
	for _, h := range a.source.All() {
		if !ok || h.Streak() > streak {
			streak = h.Streak()
			ok = true
		}
	}
	return streak, ok
}

// LongestStreakFor returns the current streak of one habit.
func (a *Analytics) LongestStreakFor(name string) (int, bool) {
	for _, h := range a.source.All() {
		if h.Name() == name {
			return h.Streak(), true
		}
	}
	return 0, false
}

// StruggledHabits returns habits whose streak is below StruggleThreshold.
func (a *Analytics) StruggledHabits() []*model.Habit {
	var out []*model.Habit
	for _, h := range a.source.All() {
		if h.Streak() < StruggleThreshold {
			out = append(out, h)
		}
	}
	return out
}

func (a *Analytics) HabitsByFrequency(freq string) []*model.Habit {
	return a.source.ByFrequency(freq)
}
