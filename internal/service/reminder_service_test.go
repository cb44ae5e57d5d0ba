package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habit-tracker/internal/model"
)

func TestReminderService_DailySummary(t *testing.T) {
	tr := seededTracker(t)
	svc := NewReminderService(tr, NewAnalytics(tr))

	text, due := svc.DailySummary(mustDate(t, "2025-06-15"))
	assert.Equal(t, 3, due)
	assert.Contains(t, text, "2025-06-15")
	assert.Contains(t, text, "<b>Exercise</b> · streak 3 days")
	assert.Contains(t, text, "<b>Journal</b> · streak 2 weeks")
	assert.Contains(t, text, "Needs attention")
	assert.Contains(t, text, "• Read (streak 1)")
}

func TestReminderService_NothingDue(t *testing.T) {
	tr := newTracker(t, &memStore{})
	_, err := tr.Add(context.Background(), HabitInput{Name: "<Tea>", StartDate: "2025-07-01", Frequency: "daily"})
	require.NoError(t, err)
	svc := NewReminderService(tr, NewAnalytics(tr))

	text, due := svc.DailySummary(mustDate(t, "2025-06-15"))
	assert.Zero(t, due)
	assert.Contains(t, text, "nothing due")
	assert.Contains(t, text, "&lt;Tea&gt;")
}

func TestFormatGoal(t *testing.T) {
	target := 2.5
	h, err := model.NewHabit("Run", "2025-06-01", "weekly", "km", &target)
	require.NoError(t, err)
	assert.Equal(t, "2.5 km weekly", FormatGoal(h))

	bare, err := model.NewHabit("Run", "2025-06-01", "daily", "", nil)
	require.NoError(t, err)
	assert.Empty(t, FormatGoal(bare))
	assert.Equal(t, "0 days", FormatStreak(bare))
}
