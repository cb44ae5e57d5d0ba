package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_RoundTrip(t *testing.T) {
	target := 3.0
	h, err := NewHabit("Journal", "2025-06-01", "weekly", "pages", &target)
	require.NoError(t, err)
	h.MarkComplete(day(t, "2025-06-15"))
	h.MarkComplete(day(t, "2025-06-01"))
	h.MarkComplete(day(t, "2025-06-08"))

	rec := h.Record()
	assert.Equal(t, []string{"2025-06-01", "2025-06-08", "2025-06-15"}, rec.CompletedDates)
	assert.Equal(t, 3, rec.Streak)
	assert.Equal(t, "weekly", rec.Frequency)

	restored, err := FromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, rec, restored.Record())
}

func TestFromRecord_TrustsStoredStreak(t *testing.T) {
	restored, err := FromRecord(Record{
		Name:           "Run",
		StartDate:      "2025-06-01T00:00:00",
		Frequency:      "daily",
		CompletedDates: []string{"2025-06-02", "2025-06-02", "2025-06-03"},
		Streak:         9,
	})
	require.NoError(t, err)
	assert.Equal(t, 9, restored.Streak())
	assert.Equal(t, 2, restored.Progress().TotalCompletions)

	// the next mutation brings the cache back in line
	restored.MarkComplete(day(t, "2025-06-04"))
	assert.Equal(t, 3, restored.Streak())
}

func TestFromRecord_RejectsBadCompletion(t *testing.T) {
	_, err := FromRecord(Record{
		Name:           "Run",
		StartDate:      "2025-06-01",
		Frequency:      "daily",
		CompletedDates: []string{"yesterday"},
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "completed_dates", verr.Field)
}
