package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"habit-tracker/internal/model"
	"habit-tracker/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageName
	stageStartDate
	stageFrequency
	stageUnit
	stageTarget
)

type conversationState struct {
	stage conversationStage
	input service.HabitInput
}

// Bot serves one habit collection over Telegram.
type Bot struct {
	api       *tgbotapi.BotAPI
	tracker   *service.Tracker
	analytics *service.Analytics
	reminders *service.ReminderService
	ownerID   int64
	logger    *zap.Logger

	mu            sync.Mutex
	conversations map[int64]*conversationState
	pendingDelete map[int64]string
	lastChatID    int64
}

func New(token string, ownerID int64, tracker *service.Tracker, analytics *service.Analytics, reminders *service.ReminderService, log *zap.Logger) (*Bot, error) {
	if log == nil {
		log = zap.NewNop()
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Info("bot authorized", zap.String("account", api.Self.UserName))

	return &Bot{
		api:           api,
		tracker:       tracker,
		analytics:     analytics,
		reminders:     reminders,
		ownerID:       ownerID,
		logger:        log,
		conversations: make(map[int64]*conversationState),
		pendingDelete: make(map[int64]string),
		lastChatID:    ownerID,
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.logger.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.logger.Error("handle callback", zap.Error(err))
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.logger.Error("handle message", zap.Error(err))
			}
		}
	}

	return ctx.Err()
}

// SendDailyReminder sends today's summary to the owner, or to the last chat
// that talked to the bot when no owner is configured.
func (b *Bot) SendDailyReminder(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID := b.reminderChat()
	if chatID == 0 {
		b.logger.Info("no chat to remind yet")
		return nil
	}
	text, due := b.reminders.DailySummary(b.tracker.Today())
	if err := b.sendText(chatID, text); err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}
	b.logger.Info("reminder sent", zap.Int64("chat", chatID), zap.Int("due", due))
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	if !b.allowed(msg.From.ID) {
		b.logger.Warn("ignoring message from stranger", zap.Int64("user", msg.From.ID))
		return nil
	}
	b.rememberChat(msg.Chat.ID)

	if !msg.IsCommand() && isCancelInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearPendingDelete(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.logger.Info("command",
			zap.Int64("user", msg.From.ID),
			zap.String("command", msg.Command()),
			zap.String("args", msg.CommandArguments()),
		)
		return b.handleCommand(ctx, msg)
	}

	if name, ok := b.getPendingDelete(msg.From.ID); ok {
		return b.handleDeleteConfirmation(ctx, msg, name)
	}

	if state := b.getConversation(msg.From.ID); state != nil {
		b.logger.Debug("conversation step", zap.Int("stage", int(state.stage)), zap.Int64("user", msg.From.ID))
		return b.handleConversation(ctx, msg, state)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Send /new to add a habit or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start", "help":
		return b.handleHelp(msg)
	case "habits":
		return b.sendHabitList(msg.Chat.ID)
	case "today":
		return b.handleToday(msg)
	case "done":
		return b.handleDone(ctx, msg)
	case "new":
		return b.startNewHabitConversation(msg)
	case "delete":
		return b.askDeleteConfirmation(msg.Chat.ID, msg.From.ID, msg.CommandArguments())
	case "stats":
		return b.handleStats(msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearPendingDelete(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep track of your habits and streaks.</b>\n\n", escape(name)) +
		"• /new — add a habit step by step\n" +
		"• /today — habits due today\n" +
		"• /habits — all habits with streaks\n" +
		"• /done &lt;name&gt; — mark a habit done today\n" +
		"• /delete &lt;name&gt; — delete a habit\n" +
		"• /stats — longest streak and weak habits\n" +
		"• /cancel — cancel the current dialog"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleToday(msg *tgbotapi.Message) error {
	text, _ := b.reminders.DailySummary(b.tracker.Today())
	due := b.tracker.DueToday()
	if len(due) == 0 {
		return b.sendText(msg.Chat.ID, text)
	}
	return b.sendWithReplyMarkup(msg.Chat.ID, text, doneKeyboard(due))
}

func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" {
		return b.sendText(msg.Chat.ID, "Tell me which habit: /done Exercise")
	}
	return b.completeHabit(ctx, msg.Chat.ID, name)
}

func (b *Bot) completeHabit(ctx context.Context, chatID int64, name string) error {
	today := b.tracker.Today()
	before, err := b.tracker.Get(name)
	if err != nil {
		return b.sendError(chatID, err)
	}
	if before.HasCompleted(today) {
		return b.sendText(chatID, fmt.Sprintf("«%s» is already done today.", escape(before.Name())))
	}

	h, err := b.tracker.MarkComplete(ctx, name, today)
	if err != nil {
		return b.sendError(chatID, err)
	}
	return b.sendText(chatID, fmt.Sprintf("✅ «%s» done. Streak: %s.", escape(h.Name()), service.FormatStreak(h)))
}

func (b *Bot) handleStats(msg *tgbotapi.Message) error {
	var builder strings.Builder
	builder.WriteString("📈 <b>Analytics</b>\n")
	if longest, ok := b.analytics.LongestStreak(); ok {
		builder.WriteString(fmt.Sprintf("Longest streak: <b>%d</b>\n", longest))
	} else {
		builder.WriteString("No habits to analyze yet.\n")
	}

	if struggled := b.analytics.StruggledHabits(); len(struggled) > 0 {
		builder.WriteString("\n💡 <b>Habits with low streaks</b>\n")
		for _, h := range struggled {
			builder.WriteString(fmt.Sprintf("• %s (streak %d)\n", escape(h.Name()), h.Streak()))
		}
	} else if _, ok := b.analytics.LongestStreak(); ok {
		builder.WriteString("\nYou're doing great! No weak habits detected.\n")
	}

	for _, freq := range model.Frequencies {
		habits := b.analytics.HabitsByFrequency(string(freq))
		if len(habits) == 0 {
			continue
		}
		builder.WriteString(fmt.Sprintf("\n<b>%s</b>\n", strings.ToUpper(string(freq[:1]))+string(freq[1:])))
		for _, h := range habits {
			builder.WriteString(fmt.Sprintf("• %s — %s\n", escape(h.Name()), service.FormatStreak(h)))
		}
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) startNewHabitConversation(msg *tgbotapi.Message) error {
	b.logger.Info("start new habit conversation", zap.Int64("user", msg.From.ID))
	b.setConversation(msg.From.ID, &conversationState{stage: stageName})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New habit.\n<b>Step 1:</b> what is it called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageName:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The name cannot be empty.", cancelKeyboard())
		}
		if b.tracker.Has(text) {
			return b.sendWithReplyMarkup(msg.Chat.ID, fmt.Sprintf("«%s» already exists. Pick another name.", escape(text)), cancelKeyboard())
		}
		state.input.Name = text
		state.stage = stageStartDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "🗓 Start date as <code>2025-06-01</code> (or «Today»).", todayKeyboard())
	case stageStartDate:
		start := b.tracker.Today()
		if !isTodayInput(text) {
			parsed, err := model.ParseDate(text)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I cannot read that date. Use <code>2025-06-01</code> or «Today».", todayKeyboard())
			}
			start = parsed
		}
		state.input.StartDate = model.FormatDate(start)
		state.stage = stageFrequency
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 How often: daily or weekly?", frequencyKeyboard())
	case stageFrequency:
		freq, err := model.ParseFrequency(text)
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Choose «daily» or «weekly».", frequencyKeyboard())
		}
		state.input.Frequency = string(freq)
		state.stage = stageUnit
		return b.sendWithReplyMarkup(msg.Chat.ID, "📏 Unit to track (km, pages, minutes…) or «Skip».", skipKeyboard())
	case stageUnit:
		if !isSkipInput(text) {
			state.input.Unit = text
		}
		state.stage = stageTarget
		return b.sendWithReplyMarkup(msg.Chat.ID, "🎯 Goal per period as a number, or «Skip».", skipKeyboard())
	case stageTarget:
		if !isSkipInput(text) {
			target, err := model.ParseTarget(text)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "The goal must be a number, e.g. <code>5</code> or <code>2.5</code>.", skipKeyboard())
			}
			state.input.TargetValue = target
		}
		err := b.finishHabitCreation(ctx, msg.Chat.ID, state.input)
		b.clearConversation(msg.From.ID)
		return err
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Dialog reset. Try /new again.")
	}
}

func (b *Bot) finishHabitCreation(ctx context.Context, chatID int64, input service.HabitInput) error {
	created, err := b.tracker.Add(ctx, input)
	if err != nil {
		return b.sendError(chatID, err)
	}
	if !created {
		return b.sendText(chatID, fmt.Sprintf("«%s» already exists.", escape(input.Name)))
	}

	h, err := b.tracker.Get(input.Name)
	if err != nil {
		return b.sendError(chatID, err)
	}

	var summary strings.Builder
	summary.WriteString("✅ <b>Habit saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>Name:</b> %s\n", escape(h.Name())))
	summary.WriteString(fmt.Sprintf("• <b>Start:</b> %s\n", model.FormatDate(h.StartDate())))
	summary.WriteString(fmt.Sprintf("• <b>Frequency:</b> %s\n", h.Frequency()))
	if goal := service.FormatGoal(h); goal != "" {
		summary.WriteString(fmt.Sprintf("• <b>Goal:</b> %s\n", escape(goal)))
	}
	return b.sendText(chatID, strings.TrimSpace(summary.String()))
}

func (b *Bot) sendHabitList(chatID int64) error {
	habits := b.tracker.All()
	if len(habits) == 0 {
		return b.sendText(chatID, "No habits yet. Add one with /new.")
	}

	today := b.tracker.Today()
	var builder strings.Builder
	builder.WriteString("📋 <b>Your habits</b>\n\n")
	for _, h := range habits {
		icon := iconWaiting
		switch {
		case h.HasCompleted(today):
			icon = iconDone
		case h.IsDue(today):
			icon = iconDue
		}
		progress := h.Progress()
		builder.WriteString(fmt.Sprintf("%s <b>%s</b> (%s)\n", icon, escape(h.Name()), h.Frequency()))
		builder.WriteString(fmt.Sprintf("   🔥 %s · %d done", service.FormatStreak(h), progress.TotalCompletions))
		if goal := service.FormatGoal(h); goal != "" {
			builder.WriteString(" · 🎯 " + escape(goal))
		}
		builder.WriteString("\n")
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	if markup, ok := habitListKeyboard(habits, today); ok {
		msg.ReplyMarkup = markup
	}
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("callback ack", zap.Error(err))
	}
	if !b.allowed(cb.From.ID) {
		return nil
	}

	action, name, ok := parseCallback(cb.Data)
	if !ok {
		return nil
	}
	b.logger.Info("callback", zap.Int64("user", cb.From.ID), zap.String("action", action), zap.String("habit", name))

	switch action {
	case cbDone:
		return b.completeHabit(ctx, cb.Message.Chat.ID, name)
	case cbDelete:
		return b.askDeleteConfirmation(cb.Message.Chat.ID, cb.From.ID, name)
	default:
		return nil
	}
}

func (b *Bot) askDeleteConfirmation(chatID, userID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return b.sendText(chatID, "Tell me which habit: /delete Exercise")
	}
	h, err := b.tracker.Get(name)
	if err != nil {
		return b.sendError(chatID, err)
	}
	b.setPendingDelete(userID, h.Name())
	text := fmt.Sprintf("Delete «%s» and its %d completions?", escape(h.Name()), h.Progress().TotalCompletions)
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleDeleteConfirmation(ctx context.Context, msg *tgbotapi.Message, name string) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearPendingDelete(msg.From.ID)
		if err := b.tracker.Delete(ctx, name); err != nil {
			return b.sendError(msg.Chat.ID, err)
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 «%s» deleted.", escape(name)))
	case isKeepInput(text):
		b.clearPendingDelete(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Kept it.")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or cancel the deletion.", confirmKeyboard())
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(msg.Text)) {
	case strings.ToLower(menuLabelNew):
		return true, b.startNewHabitConversation(msg)
	case strings.ToLower(menuLabelToday):
		return true, b.handleToday(msg)
	case strings.ToLower(menuLabelHabits):
		return true, b.sendHabitList(msg.Chat.ID)
	case strings.ToLower(menuLabelStats):
		return true, b.handleStats(msg)
	default:
		return false, nil
	}
}

// sendError turns tracker errors into user-facing replies.
func (b *Bot) sendError(chatID int64, err error) error {
	var verr *model.ValidationError
	switch {
	case errors.Is(err, service.ErrHabitNotFound):
		return b.sendText(chatID, "Habit not found.")
	case errors.Is(err, service.ErrHabitExists):
		return b.sendText(chatID, "A habit with that name already exists.")
	case errors.As(err, &verr):
		return b.sendText(chatID, "Invalid input: "+escape(verr.Error()))
	default:
		b.logger.Error("tracker operation failed", zap.Error(err))
		return b.sendText(chatID, "Error: "+escape(err.Error()))
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendWithReplyMarkup(chatID, text, mainMenuKeyboard())
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) allowed(userID int64) bool {
	return b.ownerID == 0 || b.ownerID == userID
}

func (b *Bot) rememberChat(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastChatID = chatID
}

func (b *Bot) reminderChat() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ownerID != 0 {
		return b.ownerID
	}
	return b.lastChatID
}

func (b *Bot) getPendingDelete(userID int64) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	name, ok := b.pendingDelete[userID]
	return name, ok
}

func (b *Bot) setPendingDelete(userID int64, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingDelete[userID] = name
}

func (b *Bot) clearPendingDelete(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pendingDelete, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func escape(s string) string {
	return html.EscapeString(s)
}

// reminderTimeout bounds one scheduled reminder run.
const reminderTimeout = 30 * time.Second

// ReminderJob returns a cron-friendly func that sends the daily reminder.
func (b *Bot) ReminderJob() func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), reminderTimeout)
		defer cancel()
		if err := b.SendDailyReminder(ctx); err != nil {
			b.logger.Error("daily reminder", zap.Error(err))
		}
	}
}
