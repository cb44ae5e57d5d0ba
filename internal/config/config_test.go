package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HABITS_STORAGE", "HABITS_DATA_FILE", "DATABASE_URL", "TELEGRAM_TOKEN",
		"TELEGRAM_OWNER_ID", "REMINDER_TIME", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, StorageJSON, cfg.Storage.Driver)
	assert.Equal(t, "data/habits.json", cfg.Storage.DataFile)
	assert.Equal(t, "data/habits.db", cfg.Storage.DSN)
	assert.Equal(t, "08:00", cfg.Reminder.DailyAt)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Error(t, cfg.RequireTelegram())
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
storage:
  driver: SQLite
  dsn: /tmp/habits.db
telegram:
  token: from-file
  owner_id: 42
reminder:
  daily_at: "07:30"
log:
  level: debug
  development: true
`)
	t.Setenv("TELEGRAM_TOKEN", "from-env")
	t.Setenv("REMINDER_TIME", "21:15")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/habits.db", cfg.Storage.DSN)
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.EqualValues(t, 42, cfg.Telegram.OwnerID)
	assert.Equal(t, "21:15", cfg.Reminder.DailyAt)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
	assert.NoError(t, cfg.RequireTelegram())
}

func TestLoad_EmptyFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, StorageJSON, cfg.Storage.Driver)
}

func TestLoad_Rejections(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "unknown driver", body: "storage:\n  driver: postgres\n"},
		{name: "bad reminder", body: "reminder:\n  daily_at: noon\n"},
		{name: "bad level", env: map[string]string{"LOG_LEVEL": "chatty"}},
		{name: "bad owner", env: map[string]string{"TELEGRAM_OWNER_ID": "me"}},
		{name: "unknown key", body: "storrage:\n  driver: json\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
