package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habit-tracker/internal/model"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "db", "habits.db"), nil)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewSQLiteStore(db, nil)
}

func TestSQLiteStore_LoadEmpty(t *testing.T) {
	store := newSQLiteStore(t)

	records, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleRecords()))
	records, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), records)
}

func TestSQLiteStore_SaveReplacesCollection(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleRecords()))

	renamed := sampleRecords()[:1]
	renamed[0].Name = "Running"
	renamed[0].CompletedDates = append(renamed[0].CompletedDates, "2025-06-12")
	renamed[0].Streak = 3
	require.NoError(t, store.Save(ctx, renamed))

	records, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Running", records[0].Name)
	assert.Equal(t, []string{"2025-06-10", "2025-06-11", "2025-06-12"}, records[0].CompletedDates)
	assert.Equal(t, 3, records[0].Streak)

	var completions int64
	require.NoError(t, store.db.Model(&model.CompletionRow{}).Count(&completions).Error)
	assert.EqualValues(t, 3, completions)

	require.NoError(t, store.Save(ctx, nil))
	records, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}
