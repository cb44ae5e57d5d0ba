package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"habit-tracker/internal/model"
)

// JSONFileStore keeps all habit records in one JSON array on disk.
type JSONFileStore struct {
	path   string
	logger *zap.Logger
}

func NewJSONFileStore(path string, log *zap.Logger) *JSONFileStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &JSONFileStore{path: path, logger: log}
}

func (s *JSONFileStore) Path() string { return s.path }

// Load returns no records when the file does not exist yet.
func (s *JSONFileStore) Load(ctx context.Context) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Debug("no habit file yet", zap.String("path", s.path))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read habits: %w", err)
	}

	var records []model.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return records, nil
}

// Save writes to a temp file in the same directory and renames it over the
// old file, so an interrupted write never leaves a truncated file behind.
func (s *JSONFileStore) Save(ctx context.Context, records []model.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []model.Record{}
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("encode habits: %w", err)
	}
	if err := ensureParentDir(s.path); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write habits: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync habits: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close habits: %w", err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	s.logger.Debug("habits saved", zap.String("path", s.path), zap.Int("count", len(records)))
	return nil
}
