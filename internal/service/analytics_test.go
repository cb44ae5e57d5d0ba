package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededTracker(t *testing.T) *Tracker {
	t.Helper()
	tr := newTracker(t, &memStore{})
	ctx := context.Background()

	for _, in := range []HabitInput{
		{Name: "Exercise", StartDate: "2025-06-01", Frequency: "daily"},
		{Name: "Journal", StartDate: "2025-06-01", Frequency: "weekly"},
		{Name: "Read", StartDate: "2025-06-01", Frequency: "daily"},
	} {
		_, err := tr.Add(ctx, in)
		require.NoError(t, err)
	}
	for _, d := range []string{"2025-06-10", "2025-06-11", "2025-06-12"} {
		_, err := tr.MarkComplete(ctx, "Exercise", mustDate(t, d))
		require.NoError(t, err)
	}
	for _, d := range []string{"2025-06-01", "2025-06-08"} {
		_, err := tr.MarkComplete(ctx, "Journal", mustDate(t, d))
		require.NoError(t, err)
	}
	_, err := tr.MarkComplete(ctx, "Read", mustDate(t, "2025-06-12"))
	require.NoError(t, err)
	return tr
}

func TestAnalytics_LongestStreak(t *testing.T) {
	a := NewAnalytics(seededTracker(t))

	streak, ok := a.LongestStreak()
	require.True(t, ok)
	assert.Equal(t, 3, streak)
}

func TestAnalytics_LongestStreakEmptyHasNoResult(t *testing.T) {
	a := NewAnalytics(newTracker(t, &memStore{}))

	streak, ok := a.LongestStreak()
	assert.False(t, ok)
	assert.Zero(t, streak)
}

func TestAnalytics_LongestStreakZeroIsARealResult(t *testing.T) {
	tr := newTracker(t, &memStore{})
	_, err := tr.Add(context.Background(), HabitInput{Name: "Read", StartDate: "2025-06-01", Frequency: "daily"})
	require.NoError(t, err)

	streak, ok := NewAnalytics(tr).LongestStreak()
	assert.True(t, ok)
	assert.Zero(t, streak)
}

func TestAnalytics_LongestStreakFor(t *testing.T) {
	a := NewAnalytics(seededTracker(t))

	streak, ok := a.LongestStreakFor("Journal")
	require.True(t, ok)
	assert.Equal(t, 2, streak)

	_, ok = a.LongestStreakFor("Ghost")
	assert.False(t, ok)
}

func TestAnalytics_StruggledHabits(t *testing.T) {
	a := NewAnalytics(seededTracker(t))

	assert.Equal(t, []string{"Read"}, names(a.StruggledHabits()))
}

func TestAnalytics_HabitsByFrequency(t *testing.T) {
	a := NewAnalytics(seededTracker(t))

	assert.Equal(t, []string{"Exercise", "Read"}, names(a.HabitsByFrequency("Daily")))
	assert.Equal(t, []string{"Journal"}, names(a.HabitsByFrequency("weekly")))
}
