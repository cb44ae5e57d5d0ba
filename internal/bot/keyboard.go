package bot

import (
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"habit-tracker/internal/model"
)

const (
	cbDone   = "done"
	cbDelete = "delete"

	// Telegram rejects callback data longer than this.
	maxCallbackData = 64
)

const (
	btnSkip         = "⏭️ Skip"
	btnToday        = "📅 Today"
	btnConfirm      = "✅ Delete"
	btnKeep         = "↩️ Keep"
	btnCancelDialog = "⏪ Cancel"
	iconDue         = "⏳"
	iconDone        = "✅"
	iconWaiting     = "💤"
	menuLabelNew    = "➕ New habit"
	menuLabelToday  = "🔥 Today"
	menuLabelHabits = "📋 Habits"
	menuLabelStats  = "📈 Stats"
)

// callbackData encodes an inline button action. ok is false when the habit
// name is too long to fit.
func callbackData(action, name string) (string, bool) {
	data := action + ":" + name
	if len(data) > maxCallbackData {
		return "", false
	}
	return data, true
}

func parseCallback(data string) (action, name string, ok bool) {
	action, name, ok = strings.Cut(data, ":")
	if !ok || name == "" {
		return "", "", false
	}
	switch action {
	case cbDone, cbDelete:
		return action, name, true
	default:
		return "", "", false
	}
}

// doneKeyboard offers one "done" button per habit.
func doneKeyboard(habits []*model.Habit) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, h := range habits {
		data, ok := callbackData(cbDone, h.Name())
		if !ok {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(iconDone+" "+shortName(h.Name(), 28), data),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// habitListKeyboard offers "done" for habits due today and "delete" for all.
func habitListKeyboard(habits []*model.Habit, today time.Time) (tgbotapi.InlineKeyboardMarkup, bool) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, h := range habits {
		var row []tgbotapi.InlineKeyboardButton
		if h.IsDue(today) {
			if data, ok := callbackData(cbDone, h.Name()); ok {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(iconDone+" "+shortName(h.Name(), 20), data))
			}
		}
		if data, ok := callbackData(cbDelete, h.Name()); ok {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("🗑 "+shortName(h.Name(), 16), data))
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func shortName(name string, maxLen int) string {
	runes := []rune(strings.TrimSpace(strings.ReplaceAll(name, "\n", " ")))
	if len(runes) <= maxLen {
		return string(runes)
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelHabits),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNew),
			tgbotapi.NewKeyboardButton(menuLabelStats),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return oneTimeKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnKeep),
		),
	)
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return oneTimeKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return oneTimeKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnSkip)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
}

func todayKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return oneTimeKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnToday)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
}

func frequencyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	row := make([]tgbotapi.KeyboardButton, 0, len(model.Frequencies))
	for _, f := range model.Frequencies {
		row = append(row, tgbotapi.NewKeyboardButton(string(f)))
	}
	return oneTimeKeyboard(row, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)))
}

func oneTimeKeyboard(rows ...[]tgbotapi.KeyboardButton) tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func normalizeInput(text string) string {
	return strings.TrimSpace(strings.ToLower(text))
}

func isSkipInput(text string) bool {
	value := normalizeInput(text)
	return value == "-" || value == "" || value == normalizeInput(btnSkip) || value == "skip"
}

func isTodayInput(text string) bool {
	value := normalizeInput(text)
	return value == "" || value == normalizeInput(btnToday) || value == "today"
}

func isConfirmInput(text string) bool {
	value := normalizeInput(text)
	return value == normalizeInput(btnConfirm) || value == "delete" || value == "yes" || value == "y"
}

func isKeepInput(text string) bool {
	value := normalizeInput(text)
	return value == normalizeInput(btnKeep) || value == "keep" || value == "no" || value == "n"
}

func isCancelInput(text string) bool {
	value := normalizeInput(text)
	return value == normalizeInput(btnCancelDialog) || value == "cancel"
}
