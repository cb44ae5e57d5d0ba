package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habit-tracker/internal/model"
)

func sampleRecords() []model.Record {
	target := 5.0
	return []model.Record{
		{
			Name:           "Exercise",
			StartDate:      "2025-06-01",
			Frequency:      "daily",
			Unit:           "km",
			TargetValue:    &target,
			CompletedDates: []string{"2025-06-10", "2025-06-11"},
			Streak:         2,
		},
		{
			Name:           "Journal",
			StartDate:      "2025-06-01",
			Frequency:      "weekly",
			CompletedDates: []string{},
		},
	}
}

func TestJSONFileStore_LoadMissingFile(t *testing.T) {
	store := NewJSONFileStore(filepath.Join(t.TempDir(), "habits.json"), nil)

	records, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestJSONFileStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "habits.json")
	store := NewJSONFileStore(path, nil)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleRecords()))
	records, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), records)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"completed_dates"`)
	assert.Contains(t, string(raw), `"start_date": "2025-06-01"`)
}

func TestJSONFileStore_SaveOverwritesWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	store := NewJSONFileStore(filepath.Join(dir, "habits.json"), nil)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleRecords()))
	require.NoError(t, store.Save(ctx, sampleRecords()[:1]))

	records, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Exercise", records[0].Name)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "habits.json", entries[0].Name())
}

func TestJSONFileStore_SaveEmptyWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habits.json")
	store := NewJSONFileStore(path, nil)

	require.NoError(t, store.Save(context.Background(), nil))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(raw))
}

func TestJSONFileStore_LoadReadsLegacyTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habits.json")
	legacy := `[{"name": "Meditate", "start_date": "2025-06-01T00:00:00", "frequency": "daily",
	  "unit": null, "target_value": null, "completed_dates": ["2025-06-10"], "streak": 1}]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	records, err := NewJSONFileStore(path, nil).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	h, err := model.FromRecord(records[0])
	require.NoError(t, err)
	assert.Equal(t, "Meditate", h.Name())
	assert.Equal(t, "", h.Unit())
	assert.Nil(t, h.TargetValue())
	assert.Equal(t, 1, h.Streak())
}

func TestJSONFileStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habits.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewJSONFileStore(path, nil).Load(context.Background())
	require.Error(t, err)
}
