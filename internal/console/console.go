// Package console runs the interactive, line-oriented habit tracker menu.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"habit-tracker/internal/model"
	"habit-tracker/internal/service"
)

type styles struct {
	title lipgloss.Style
	good  lipgloss.Style
	warn  lipgloss.Style
	muted lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		good:  r.NewStyle().Foreground(lipgloss.Color("10")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("11")),
		muted: r.NewStyle().Faint(true),
	}
}

// Console translates typed commands into tracker calls.
type Console struct {
	tracker   *service.Tracker
	analytics *service.Analytics
	in        *bufio.Scanner
	out       io.Writer
	logger    *zap.Logger
	style     styles
}

func New(tracker *service.Tracker, analytics *service.Analytics, in io.Reader, out io.Writer, log *zap.Logger) *Console {
	if log == nil {
		log = zap.NewNop()
	}
	return &Console{
		tracker:   tracker,
		analytics: analytics,
		in:        bufio.NewScanner(in),
		out:       out,
		logger:    log,
		style:     newStyles(out),
	}
}

// errQuit ends the loop when input runs out.
var errQuit = errors.New("quit")

// Run shows the menu until the user quits, input ends or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.showMenu()
		choice, err := c.prompt("Choose an option: ")
		if err != nil {
			return c.finish(err)
		}

		switch strings.ToLower(choice) {
		case "1":
			err = c.createHabit(ctx)
		case "2":
			err = c.manageHabits(ctx)
		case "3":
			err = c.markHabitComplete(ctx)
		case "4":
			err = c.viewAnalytics()
		case "5", "q", "quit", "exit":
			c.println("Exiting Habit Tracker. Goodbye!")
			return nil
		default:
			c.println("Invalid choice. Try again.")
		}
		if err != nil {
			return c.finish(err)
		}
	}
}

func (c *Console) finish(err error) error {
	if errors.Is(err, errQuit) {
		c.println("")
		return nil
	}
	return err
}

func (c *Console) showMenu() {
	c.println("")
	c.println(c.style.title.Render("====== HABIT TRACKER MENU ======"))
	c.println("1. Create a new habit")
	c.println("2. Manage habits (view, edit, delete)")
	c.println("3. Mark habit as completed")
	c.println("4. View analytics")
	c.println("5. Quit")
}

func (c *Console) createHabit(ctx context.Context) error {
	var input service.HabitInput
	var err error

	if input.Name, err = c.prompt("Enter habit name: "); err != nil {
		return err
	}
	if input.Name == "" {
		c.warn("Habit name must not be empty.")
		return nil
	}
	if input.StartDate, err = c.prompt("Enter start date (YYYY-MM-DD): "); err != nil {
		return err
	}
	if _, perr := model.ParseDate(input.StartDate); perr != nil {
		c.warn("Invalid date format.")
		return nil
	}
	if input.Frequency, err = c.prompt("Frequency (daily/weekly): "); err != nil {
		return err
	}
	freq, perr := model.ParseFrequency(input.Frequency)
	if perr != nil {
		c.warn("Invalid frequency. Must be 'daily' or 'weekly'.")
		return nil
	}
	input.Frequency = string(freq)
	if input.Unit, err = c.prompt("Enter the unit you want to track (e.g. km, ml, hours): "); err != nil {
		return err
	}
	input.Unit = strings.ToLower(input.Unit)
	rawTarget, err := c.prompt("Enter your goal per day/week in that unit (blank for none): ")
	if err != nil {
		return err
	}
	if input.TargetValue, perr = model.ParseTarget(rawTarget); perr != nil {
		c.warn("Invalid target. Must be a number.")
		return nil
	}

	c.println("")
	c.println(c.style.title.Render("Review your habit:"))
	c.printf("Name      : %s\n", input.Name)
	c.printf("Start Date: %s\n", input.StartDate)
	c.printf("Frequency : %s\n", input.Frequency)
	c.printf("Unit      : %s\n", input.Unit)
	if input.TargetValue != nil {
		c.printf("Target    : %s %s %s\n", strconv.FormatFloat(*input.TargetValue, 'f', -1, 64), input.Unit, input.Frequency)
	}

	save, err := c.prompt("Do you want to save this habit (y/n): ")
	if err != nil {
		return err
	}
	switch strings.ToLower(save) {
	case "y":
		return c.saveHabit(ctx, input)
	case "n":
		confirm, err := c.prompt("Are you sure you want to cancel this habit creation? (y/n): ")
		if err != nil {
			return err
		}
		switch strings.ToLower(confirm) {
		case "y":
			c.println("Your habit has been discarded.")
		case "n":
			return c.saveHabit(ctx, input)
		default:
			c.warn("Invalid input. Habit not saved.")
		}
	default:
		c.warn("Invalid input. Habit not saved.")
	}
	return nil
}

func (c *Console) saveHabit(ctx context.Context, input service.HabitInput) error {
	created, err := c.tracker.Add(ctx, input)
	if err != nil {
		return c.report(err)
	}
	if !created {
		c.warn(fmt.Sprintf("Habit '%s' already exists.", strings.TrimSpace(input.Name)))
		return nil
	}
	c.success(fmt.Sprintf("Habit '%s' created successfully!", strings.TrimSpace(input.Name)))
	return nil
}

func (c *Console) manageHabits(ctx context.Context) error {
	habits := c.tracker.All()
	if len(habits) == 0 {
		c.println("No habits to manage.")
		return nil
	}

	c.println("")
	c.println(c.style.title.Render("Your Habits:"))
	for i, h := range habits {
		c.printf("%d. %s (%s) %s\n", i+1, h.Name(), h.Frequency(),
			c.style.muted.Render(fmt.Sprintf("streak %s, %d done", service.FormatStreak(h), h.Progress().TotalCompletions)))
	}

	choice, err := c.prompt("Enter habit name to edit/delete or press Enter to go back: ")
	if err != nil || choice == "" {
		return err
	}
	name, ok := c.resolve(choice, habits)
	if !ok {
		c.warn("Habit not found.")
		return nil
	}

	action, err := c.prompt("Type 'edit' to edit or 'delete' to delete: ")
	if err != nil {
		return err
	}
	switch strings.ToLower(action) {
	case "edit":
		return c.editHabit(ctx, name)
	case "delete":
		confirm, err := c.prompt("Are you sure you want to delete this habit? (y/n): ")
		if err != nil {
			return err
		}
		switch strings.ToLower(confirm) {
		case "y":
			if err := c.tracker.Delete(ctx, name); err != nil {
				return c.report(err)
			}
			c.success("Habit deleted.")
		case "n":
		default:
			c.warn("Invalid action.")
		}
	default:
		c.warn("Invalid action.")
	}
	return nil
}

func (c *Console) editHabit(ctx context.Context, name string) error {
	var edit service.HabitEdit
	var err error

	if edit.NewName, err = c.prompt("New name (leave blank to keep current): "); err != nil {
		return err
	}
	if edit.StartDate, err = c.prompt("New start date (YYYY-MM-DD or leave blank): "); err != nil {
		return err
	}
	if edit.Frequency, err = c.prompt("New frequency (daily/weekly or leave blank): "); err != nil {
		return err
	}
	if edit.Unit, err = c.prompt("New unit (leave blank to keep current): "); err != nil {
		return err
	}
	rawTarget, err := c.prompt("New target value (leave blank to keep current): ")
	if err != nil {
		return err
	}
	target, perr := model.ParseTarget(rawTarget)
	if perr != nil {
		c.warn("Invalid target. Must be a number.")
		return nil
	}
	edit.TargetValue = target

	if _, err := c.tracker.Edit(ctx, name, edit); err != nil {
		return c.report(err)
	}
	c.success("Habit updated.")
	return nil
}

func (c *Console) markHabitComplete(ctx context.Context) error {
	shown := c.tracker.DueToday()
	title := "Habits Due Today:"
	if len(shown) == 0 {
		c.println("No habits due today.")
		if shown = c.tracker.All(); len(shown) == 0 {
			return nil
		}
		title = "Habits (back-fill an earlier date):"
	}

	c.println("")
	c.println(c.style.title.Render(title))
	for i, h := range shown {
		line := fmt.Sprintf("%d. %s", i+1, h.Name())
		if goal := service.FormatGoal(h); goal != "" {
			line += " " + c.style.muted.Render("("+goal+")")
		}
		c.println(line)
	}

	choice, err := c.prompt("Enter habit name to mark as complete (or press Enter to skip): ")
	if err != nil || choice == "" {
		return err
	}
	name, ok := c.resolve(choice, shown)
	if !ok {
		if !c.tracker.Has(choice) {
			c.warn("Habit not found.")
			return nil
		}
		name = strings.TrimSpace(choice)
	}

	rawDate, err := c.prompt("Completion date (YYYY-MM-DD, blank for today): ")
	if err != nil {
		return err
	}
	var day time.Time
	if rawDate != "" {
		if day, err = model.ParseDate(rawDate); err != nil {
			c.warn("Invalid date format.")
			return nil
		}
	}

	h, err := c.tracker.MarkComplete(ctx, name, day)
	if err != nil {
		return c.report(err)
	}
	c.success(fmt.Sprintf("Habit '%s' marked as complete. Streak: %s.", h.Name(), service.FormatStreak(h)))
	return nil
}

func (c *Console) viewAnalytics() error {
	c.println("")
	c.println(c.style.title.Render("===== Habit Analytics ====="))

	if longest, ok := c.analytics.LongestStreak(); ok {
		c.printf("📈 Longest streak: %d\n", longest)
	} else {
		c.println("No habits to analyze.")
	}

	if struggled := c.analytics.StruggledHabits(); len(struggled) > 0 {
		c.println("")
		c.println(c.style.warn.Render("💡 Habits with low streaks:"))
		for _, h := range struggled {
			c.printf("- %s (Streak: %d)\n", h.Name(), h.Streak())
		}
	} else {
		c.println("")
		c.success("You're doing great! No weak habits detected.")
	}

	freq, err := c.prompt("\nType 'daily' or 'weekly' to see habits by frequency, or press Enter to skip: ")
	if err != nil {
		return err
	}
	f, perr := model.ParseFrequency(freq)
	if perr != nil {
		return nil
	}
	c.printf("\nHabits with frequency '%s':\n", f)
	for _, h := range c.analytics.HabitsByFrequency(string(f)) {
		c.printf("- %s (Streak: %d)\n", h.Name(), h.Streak())
	}
	return nil
}

// resolve accepts either a habit name or its 1-based position in the shown list.
func (c *Console) resolve(choice string, shown []*model.Habit) (string, bool) {
	if n, err := strconv.Atoi(choice); err == nil && n >= 1 && n <= len(shown) {
		return shown[n-1].Name(), true
	}
	for _, h := range shown {
		if h.Name() == choice {
			return h.Name(), true
		}
	}
	return "", false
}

// report prints recoverable failures and returns only the ones that should
// stop the loop.
func (c *Console) report(err error) error {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		c.warn("Invalid input: " + verr.Error())
	case errors.Is(err, service.ErrHabitNotFound):
		c.warn("Habit not found.")
	case errors.Is(err, service.ErrHabitExists):
		c.warn("A habit with that name already exists.")
	case errors.Is(err, context.Canceled):
		return err
	default:
		c.logger.Error("console operation failed", zap.Error(err))
		c.warn("Could not save changes: " + err.Error())
	}
	return nil
}

func (c *Console) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", errQuit
	}
	return strings.TrimSpace(c.in.Text()), nil
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) success(s string) {
	c.println(c.style.good.Render(s))
}

func (c *Console) warn(s string) {
	c.println(c.style.warn.Render(s))
}
