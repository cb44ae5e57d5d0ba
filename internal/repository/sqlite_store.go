package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"habit-tracker/internal/model"
)

// SQLiteStore keeps habit records in two tables through gorm.
type SQLiteStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewSQLiteStore(db *gorm.DB, log *zap.Logger) *SQLiteStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &SQLiteStore{db: db, logger: log}
}

func (s *SQLiteStore) Load(ctx context.Context) ([]model.Record, error) {
	var rows []model.HabitRow
	err := s.db.WithContext(ctx).
		Preload("Completions", func(db *gorm.DB) *gorm.DB { return db.Order("day ASC") }).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load habits: %w", err)
	}

	records := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, recordFromRow(row))
	}
	s.logger.Debug("habits loaded", zap.Int("count", len(records)))
	return records, nil
}

// Save replaces the stored collection with records in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, records []model.Record) error {
	rows := make([]model.HabitRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rowFromRecord(rec))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&model.CompletionRow{}).Error; err != nil {
			return fmt.Errorf("clear completions: %w", err)
		}
		if err := all.Delete(&model.HabitRow{}).Error; err != nil {
			return fmt.Errorf("clear habits: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert habits: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save habits: %w", err)
	}
	s.logger.Debug("habits saved", zap.Int("count", len(records)))
	return nil
}

func rowFromRecord(rec model.Record) model.HabitRow {
	row := model.HabitRow{
		Name:        rec.Name,
		StartDate:   rec.StartDate,
		Frequency:   rec.Frequency,
		Unit:        rec.Unit,
		TargetValue: rec.TargetValue,
		Streak:      rec.Streak,
	}
	for _, d := range rec.CompletedDates {
		row.Completions = append(row.Completions, model.CompletionRow{Day: d})
	}
	return row
}

func recordFromRow(row model.HabitRow) model.Record {
	rec := model.Record{
		Name:           row.Name,
		StartDate:      row.StartDate,
		Frequency:      row.Frequency,
		Unit:           row.Unit,
		TargetValue:    row.TargetValue,
		CompletedDates: make([]string, 0, len(row.Completions)),
		Streak:         row.Streak,
	}
	for _, c := range row.Completions {
		rec.CompletedDates = append(rec.CompletedDates, c.Day)
	}
	return rec
}
