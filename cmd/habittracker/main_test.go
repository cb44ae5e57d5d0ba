package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habit-tracker/internal/service"
)

func execute(t *testing.T, dir string, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HABITS_STORAGE", "json")
	t.Setenv("HABITS_DATA_FILE", filepath.Join(dir, "habits.json"))
	t.Setenv("LOG_LEVEL", "error")

	a := &app{}
	defer a.Close()

	var out bytes.Buffer
	root := newRootCmd(a)
	root.SetArgs(append([]string{"--config", filepath.Join(dir, "config.yaml")}, args...))
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands_AddDoneListStats(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "", "add", "Exercise", "--start", "2025-06-01", "--unit", "km", "--target", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Habit 'Exercise' created.")

	_, err = execute(t, dir, "", "add", "Exercise")
	assert.ErrorContains(t, err, "already exists")

	for _, d := range []string{"2025-06-10", "2025-06-11", "2025-06-12"} {
		_, err = execute(t, dir, "", "done", "Exercise", "--date", d)
		require.NoError(t, err)
	}

	out, err = execute(t, dir, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Exercise\tdaily\tsince 2025-06-01\tstreak 3 days\t3 done\tgoal 5 km daily")

	out, err = execute(t, dir, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Longest streak: 3")
	assert.Contains(t, out, "No weak habits detected.")

	out, err = execute(t, dir, "", "due", "--date", "2025-06-12")
	require.NoError(t, err)
	assert.Contains(t, out, "No habits due on 2025-06-12.")
}

func TestCommands_RenameAndDelete(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, dir, "", "add", "Journal", "--start", "2025-06-01", "--frequency", "weekly")
	require.NoError(t, err)

	out, err := execute(t, dir, "", "rename", "Journal", "Diary")
	require.NoError(t, err)
	assert.Contains(t, out, "renamed to 'Diary'")

	out, err = execute(t, dir, "", "list", "--frequency", "WEEKLY")
	require.NoError(t, err)
	assert.Contains(t, out, "Diary\tweekly")
	assert.NotContains(t, out, "Journal")

	_, err = execute(t, dir, "", "delete", "Journal")
	assert.ErrorContains(t, err, "habit not found")

	_, err = execute(t, dir, "", "delete", "Diary")
	require.NoError(t, err)

	out, err = execute(t, dir, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "No habits to analyze.")
}

func TestCommands_RejectBadInput(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, dir, "", "add", "Run", "--frequency", "monthly")
	assert.ErrorContains(t, err, "frequency")

	_, err = execute(t, dir, "", "add", "Run", "--target", "far")
	assert.ErrorContains(t, err, "target_value")

	_, err = execute(t, dir, "", "list", "--frequency", "hourly")
	assert.Error(t, err)
}

func TestCommands_FailedCommandStillReleasesStore(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HABITS_STORAGE", "sqlite")
	t.Setenv("DATABASE_URL", filepath.Join(dir, "habits.db"))
	t.Setenv("LOG_LEVEL", "error")

	a := &app{}
	root := newRootCmd(a)
	root.SetArgs([]string{"--config", filepath.Join(dir, "config.yaml"), "done", "Unknown"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, service.ErrHabitNotFound)
	require.Len(t, a.closers, 1)

	a.Close()
	assert.Empty(t, a.closers)
	a.Close()
}

func TestCommands_DefaultRunsConsole(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "4\n\n5\n")
	require.NoError(t, err)
	assert.Contains(t, out, "HABIT TRACKER MENU")
	assert.Contains(t, out, "No habits to analyze.")
	assert.Contains(t, out, "Goodbye!")
}
