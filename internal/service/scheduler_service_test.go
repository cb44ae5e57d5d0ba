package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("08:05")
	require.NoError(t, err)
	assert.Equal(t, "0 5 8 * * *", spec)

	for _, bad := range []string{"8", "24:00", "07:60", "ab:cd", ""} {
		_, err := buildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestSchedulerService_ScheduleDaily(t *testing.T) {
	s := NewSchedulerService(time.UTC, nil)
	s.Start()
	defer s.Stop()

	id, err := s.ScheduleDaily("23:59", "reminder", func() {})
	require.NoError(t, err)

	next := s.Next(id)
	require.False(t, next.IsZero())
	assert.Equal(t, 23, next.In(time.UTC).Hour())
	assert.Equal(t, 59, next.In(time.UTC).Minute())

	_, err = s.ScheduleDaily("25:00", "broken", func() {})
	assert.Error(t, err)
}
