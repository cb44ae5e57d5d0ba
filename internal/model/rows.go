package model

import "time"

// HabitRow is the SQLite table behind the habit store.
type HabitRow struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex"`
	StartDate   string
	Frequency   string `gorm:"index"`
	Unit        string
	TargetValue *float64
	Streak      int
	Completions []CompletionRow `gorm:"foreignKey:HabitID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CompletionRow is one completed calendar day; (habit, day) is unique.
type CompletionRow struct {
	ID      uint   `gorm:"primaryKey"`
	HabitID uint   `gorm:"index:idx_habit_completion_day,unique"`
	Day     string `gorm:"index:idx_habit_completion_day,unique"`
}

func (HabitRow) TableName() string { return "habits" }

func (CompletionRow) TableName() string { return "habit_completions" }
