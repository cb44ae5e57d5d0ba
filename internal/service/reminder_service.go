package service

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"habit-tracker/internal/model"
)

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	tracker   *Tracker
	analytics *Analytics
}

func NewReminderService(tracker *Tracker, analytics *Analytics) *ReminderService {
	return &ReminderService{tracker: tracker, analytics: analytics}
}

// DailySummary renders, as Telegram HTML, the habits due on day and the ones
// that are struggling. It also returns how many habits are due.
func (s *ReminderService) DailySummary(day time.Time) (string, int) {
	day = model.DateOf(day)
	due := s.tracker.DueOn(day)

	var builder strings.Builder
	builder.WriteString("📋 <b>Habits for today</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", model.FormatDate(day)))

	builder.WriteString("🔥 <b>Due</b>\n")
	if len(due) == 0 {
		builder.WriteString("— nothing due, enjoy the day\n")
	} else {
		for _, h := range due {
			builder.WriteString(FormatHabitLine(h))
		}
	}

	struggled := s.analytics.StruggledHabits()
	if len(struggled) > 0 {
		builder.WriteString("\n💡 <b>Needs attention</b>\n")
		for _, h := range struggled {
			builder.WriteString(fmt.Sprintf("• %s (streak %d)\n", html.EscapeString(h.Name()), h.Streak()))
		}
	}

	return strings.TrimSpace(builder.String()), len(due)
}

// FormatHabitLine renders one habit as an HTML bullet with goal and streak.
func FormatHabitLine(h *model.Habit) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("• <b>%s</b>", html.EscapeString(h.Name())))
	if goal := FormatGoal(h); goal != "" {
		sb.WriteString(" · " + html.EscapeString(goal))
	}
	sb.WriteString(fmt.Sprintf(" · streak %s\n", FormatStreak(h)))
	return sb.String()
}

// FormatGoal renders the target, e.g. "5 km daily". Empty without a target.
func FormatGoal(h *model.Habit) string {
	target := h.TargetValue()
	if target == nil {
		return ""
	}
	parts := []string{strconv.FormatFloat(*target, 'f', -1, 64)}
	if h.Unit() != "" {
		parts = append(parts, h.Unit())
	}
	parts = append(parts, string(h.Frequency()))
	return strings.Join(parts, " ")
}

// FormatStreak renders the streak with its period, e.g. "3 weeks".
func FormatStreak(h *model.Habit) string {
	noun := h.Frequency().Noun()
	if h.Streak() != 1 {
		noun += "s"
	}
	return fmt.Sprintf("%d %s", h.Streak(), noun)
}
