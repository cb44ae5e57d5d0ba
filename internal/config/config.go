package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageJSON   = "json"
	StorageSQLite = "sqlite"
)

type StorageConfig struct {
	Driver   string `yaml:"driver"`
	DataFile string `yaml:"data_file"`
	DSN      string `yaml:"dsn"`
}

type TelegramConfig struct {
	Token   string `yaml:"token"`
	OwnerID int64  `yaml:"owner_id"`
}

type ReminderConfig struct {
	DailyAt string `yaml:"daily_at"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Config keeps runtime settings for the tracker.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Telegram TelegramConfig `yaml:"telegram"`
	Reminder ReminderConfig `yaml:"reminder"`
	Log      LogConfig      `yaml:"log"`
}

// Load reads an optional .env file, then the YAML file at path (a missing
// file is fine), then environment overrides, and fills in defaults.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := overrideFromEnv(&cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	return cfg, cfg.Validate()
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func overrideFromEnv(cfg *Config) error {
	if v := env("HABITS_STORAGE"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := env("HABITS_DATA_FILE"); v != "" {
		cfg.Storage.DataFile = v
	}
	if v := env("DATABASE_URL"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := env("TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := env("TELEGRAM_OWNER_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_OWNER_ID must be a number: %w", err)
		}
		cfg.Telegram.OwnerID = id
	}
	if v := env("REMINDER_TIME"); v != "" {
		cfg.Reminder.DailyAt = v
	}
	if v := env("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

func applyDefaults(cfg *Config) {
	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageJSON
	}
	if cfg.Storage.DataFile == "" {
		cfg.Storage.DataFile = "data/habits.json"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "data/habits.db"
	}
	if cfg.Reminder.DailyAt == "" {
		cfg.Reminder.DailyAt = "08:00"
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate checks values that would otherwise fail much later.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case StorageJSON, StorageSQLite:
	default:
		return fmt.Errorf("storage driver %q must be %q or %q", c.Storage.Driver, StorageJSON, StorageSQLite)
	}
	if _, err := time.Parse("15:04", c.Reminder.DailyAt); err != nil {
		return fmt.Errorf("reminder time %q must be HH:MM", c.Reminder.DailyAt)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

// RequireTelegram fails when the bot cannot be started.
func (c Config) RequireTelegram() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
