package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"habit-tracker/internal/model"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrHabitExists   = errors.New("habit already exists")
)

// Store persists the whole habit collection. Save overwrites everything
// previously stored.
type Store interface {
	Load(ctx context.Context) ([]model.Record, error)
	Save(ctx context.Context, records []model.Record) error
}

// HabitInput represents data required to create a habit.
type HabitInput struct {
	Name        string
	StartDate   string
	Frequency   string
	Unit        string
	TargetValue *float64
}

// HabitEdit lists the fields to change. Blank strings and nil keep the
// current value.
type HabitEdit struct {
	NewName     string
	StartDate   string
	Frequency   string
	Unit        string
	TargetValue *float64
}

// Tracker is the name-keyed habit collection. Every mutation is written
// through to the Store; if that fails the collection keeps its old state.
type Tracker struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	habits map[string]*model.Habit
}

type TrackerOption func(*Tracker)

// WithClock replaces time.Now as the source of "today".
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// NewTracker loads the stored collection.
func NewTracker(ctx context.Context, store Store, log *zap.Logger, opts ...TrackerOption) (*Tracker, error) {
	if log == nil {
		log = zap.NewNop()
	}
	t := &Tracker{
		store:  store,
		logger: log,
		now:    time.Now,
		habits: make(map[string]*model.Habit),
	}
	for _, opt := range opts {
		opt(t)
	}

	records, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load habits: %w", err)
	}
	for _, rec := range records {
		h, err := model.FromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("restore habit %q: %w", rec.Name, err)
		}
		t.habits[h.Name()] = h
	}
	t.logger.Info("habits loaded", zap.Int("count", len(t.habits)))
	return t, nil
}

// Today is the current calendar date according to the tracker's clock.
func (t *Tracker) Today() time.Time {
	return model.DateOf(t.now())
}

// Add creates a habit. It returns false without error when the name is taken.
func (t *Tracker) Add(ctx context.Context, input HabitInput) (bool, error) {
	h, err := model.NewHabit(input.Name, input.StartDate, input.Frequency, input.Unit, input.TargetValue)
	if err != nil {
		return false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.habits[h.Name()]; exists {
		t.logger.Info("habit already exists", zap.String("habit", h.Name()))
		return false, nil
	}

	next := maps.Clone(t.habits)
	next[h.Name()] = h
	if err := t.commit(ctx, next); err != nil {
		return false, err
	}
	t.logger.Info("habit created",
		zap.String("habit", h.Name()),
		zap.String("frequency", string(h.Frequency())),
		zap.String("start_date", model.FormatDate(h.StartDate())),
	)
	return true, nil
}

// Delete removes a habit and its history.
func (t *Tracker) Delete(ctx context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	key, err := t.lookup(name)
	if err != nil {
		return err
	}
	next := maps.Clone(t.habits)
	delete(next, key)
	if err := t.commit(ctx, next); err != nil {
		return err
	}
	t.logger.Info("habit deleted", zap.String("habit", key))
	return nil
}

// Edit applies the non-empty fields of edit. A rename moves the entry to the
// new key; the old key and the new key are never both present.
func (t *Tracker) Edit(ctx context.Context, name string, edit HabitEdit) (*model.Habit, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key, err := t.lookup(name)
	if err != nil {
		return nil, err
	}
	updated := t.habits[key].Clone()

	if strings.TrimSpace(edit.NewName) != "" {
		if err := updated.Rename(edit.NewName); err != nil {
			return nil, err
		}
		if _, taken := t.habits[updated.Name()]; taken && updated.Name() != key {
			return nil, fmt.Errorf("rename %q to %q: %w", key, updated.Name(), ErrHabitExists)
		}
	}
	if strings.TrimSpace(edit.StartDate) != "" {
		start, err := model.ParseDate(edit.StartDate)
		if err != nil {
			return nil, &model.ValidationError{Field: "start_date", Value: edit.StartDate, Reason: "expected YYYY-MM-DD"}
		}
		updated.SetStartDate(start)
	}
	if strings.TrimSpace(edit.Frequency) != "" {
		if err := updated.SetFrequency(model.Frequency(edit.Frequency)); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(edit.Unit) != "" {
		updated.SetUnit(edit.Unit)
	}
	if edit.TargetValue != nil {
		if err := updated.SetTargetValue(edit.TargetValue); err != nil {
			return nil, err
		}
	}

	next := maps.Clone(t.habits)
	delete(next, key)
	next[updated.Name()] = updated
	if err := t.commit(ctx, next); err != nil {
		return nil, err
	}
	t.logger.Info("habit updated", zap.String("habit", key), zap.String("name", updated.Name()))
	return updated.Clone(), nil
}

// MarkComplete records a completion for name on day. A zero day means today.
func (t *Tracker) MarkComplete(ctx context.Context, name string, day time.Time) (*model.Habit, error) {
	if day.IsZero() {
		day = t.Today()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	key, err := t.lookup(name)
	if err != nil {
		return nil, err
	}
	updated := t.habits[key].Clone()
	if !updated.MarkComplete(day) {
		t.logger.Debug("habit already completed",
			zap.String("habit", key),
			zap.String("date", model.FormatDate(model.DateOf(day))),
		)
		return updated, nil
	}

	next := maps.Clone(t.habits)
	next[key] = updated
	if err := t.commit(ctx, next); err != nil {
		return nil, err
	}
	t.logger.Info("habit completed",
		zap.String("habit", key),
		zap.String("date", model.FormatDate(model.DateOf(day))),
		zap.Int("streak", updated.Streak()),
	)
	return updated.Clone(), nil
}

// Get returns a copy of the named habit.
func (t *Tracker) Get(name string) (*model.Habit, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key, err := t.lookup(name)
	if err != nil {
		return nil, err
	}
	return t.habits[key].Clone(), nil
}

// Has reports whether a habit with this name exists.
func (t *Tracker) Has(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.lookup(name)
	return err == nil
}

// All returns copies of every habit ordered by name.
func (t *Tracker) All() []*model.Habit {
	return t.filter(func(*model.Habit) bool { return true })
}

// ByFrequency returns the habits with the given cadence, matched case-insensitively.
// Unknown cadences match nothing.
func (t *Tracker) ByFrequency(freq string) []*model.Habit {
	want := model.Frequency(strings.ToLower(strings.TrimSpace(freq)))
	return t.filter(func(h *model.Habit) bool { return h.Frequency() == want })
}

// DueOn returns the habits due on day.
func (t *Tracker) DueOn(day time.Time) []*model.Habit {
	return t.filter(func(h *model.Habit) bool { return h.IsDue(day) })
}

// DueToday returns the habits due on the tracker's current date.
func (t *Tracker) DueToday() []*model.Habit {
	return t.DueOn(t.Today())
}

func (t *Tracker) filter(keep func(*model.Habit) bool) []*model.Habit {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := slices.Sorted(maps.Keys(t.habits))
	out := make([]*model.Habit, 0, len(names))
	for _, name := range names {
		if h := t.habits[name]; keep(h) {
			out = append(out, h.Clone())
		}
	}
	return out
}

func (t *Tracker) lookup(name string) (string, error) {
	key := strings.TrimSpace(name)
	if _, ok := t.habits[key]; !ok {
		return "", fmt.Errorf("%q: %w", key, ErrHabitNotFound)
	}
	return key, nil
}

// commit persists next and makes it current. Callers hold mu.
func (t *Tracker) commit(ctx context.Context, next map[string]*model.Habit) error {
	names := slices.Sorted(maps.Keys(next))
	records := make([]model.Record, 0, len(names))
	for _, name := range names {
		records = append(records, next[name].Record())
	}
	if err := t.store.Save(ctx, records); err != nil {
		t.logger.Error("persist habits", zap.Error(err))
		return fmt.Errorf("persist habits: %w", err)
	}
	t.habits = next
	return nil
}
