package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"habit-tracker/internal/bot"
	"habit-tracker/internal/console"
	"habit-tracker/internal/model"
	"habit-tracker/internal/service"
)

var quiet = map[string]string{annotationQuiet: "true"}

func runConsole(cmd *cobra.Command, a *app) error {
	c := console.New(a.tracker, a.analytics, cmd.InOrStdin(), cmd.OutOrStdout(), a.logger.Named("console"))
	return c.Run(cmd.Context())
}

func newConsoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "console",
		Short:       "Start the interactive menu",
		Args:        cobra.NoArgs,
		Annotations: quiet,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd, a)
		},
	}
}

func newBotCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Serve the habits over Telegram and send a daily reminder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RequireTelegram(); err != nil {
				return err
			}
			reminders := service.NewReminderService(a.tracker, a.analytics)
			telegramBot, err := bot.New(a.cfg.Telegram.Token, a.cfg.Telegram.OwnerID, a.tracker, a.analytics, reminders, a.logger.Named("bot"))
			if err != nil {
				return fmt.Errorf("bot: %w", err)
			}

			scheduler := service.NewSchedulerService(time.Local, a.logger.Named("scheduler"))
			id, err := scheduler.ScheduleDaily(a.cfg.Reminder.DailyAt, "daily-reminder", telegramBot.ReminderJob())
			if err != nil {
				return fmt.Errorf("schedule reminder: %w", err)
			}
			scheduler.Start()
			defer scheduler.Stop()
			a.logger.Info("habit bot started", zap.Time("next_reminder", scheduler.Next(id)))

			err = telegramBot.Start(cmd.Context())
			a.logger.Info("shutdown complete")
			return err
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	var (
		input  service.HabitInput
		target string
	)
	cmd := &cobra.Command{
		Use:         "add NAME",
		Short:       "Create a habit",
		Args:        cobra.ExactArgs(1),
		Annotations: quiet,
		RunE: func(cmd *cobra.Command, args []string) error {
			input.Name = args[0]
			if input.StartDate == "" {
				input.StartDate = model.FormatDate(a.tracker.Today())
			}
			var err error
			if input.TargetValue, err = model.ParseTarget(target); err != nil {
				return err
			}
			created, err := a.tracker.Add(cmd.Context(), input)
			if err != nil {
				return err
			}
			if !created {
				return fmt.Errorf("habit %q already exists", input.Name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Habit '%s' created.\n", input.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input.StartDate, "start", "s", "", "start date YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&input.Frequency, "frequency", "f", string(model.Daily), "daily or weekly")
	cmd.Flags().StringVarP(&input.Unit, "unit", "u", "", "unit to track, e.g. km")
	cmd.Flags().StringVarP(&target, "target", "t", "", "goal per period")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var frequency string
	cmd := &cobra.Command{
		Use:         "list",
		Short:       "List habits with their streaks",
		Args:        cobra.NoArgs,
		Annotations: quiet,
		RunE: func(cmd *cobra.Command, args []string) error {
			habits := a.tracker.All()
			if frequency != "" {
				if _, err := model.ParseFrequency(frequency); err != nil {
					return err
				}
				habits = a.analytics.HabitsByFrequency(frequency)
			}
			out := cmd.OutOrStdout()
			if len(habits) == 0 {
				fmt.Fprintln(out, "No habits.")
				return nil
			}
			for _, h := range habits {
				p := h.Progress()
				fmt.Fprintf(out, "%s\t%s\tsince %s\tstreak %s\t%d done", h.Name(), h.Frequency(),
					model.FormatDate(h.StartDate()), service.FormatStreak(h), p.TotalCompletions)
				if goal := service.FormatGoal(h); goal != "" {
					fmt.Fprintf(out, "\tgoal %s", goal)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&frequency, "frequency", "f", "", "only daily or weekly habits")
	return cmd
}

func newDoneCmd(a *app) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:         "done NAME",
		Short:       "Mark a habit complete (today unless --date is given)",
		Args:        cobra.ExactArgs(1),
		Annotations: quiet,
		RunE: func(cmd *cobra.Command, args []string) error {
			var day time.Time
			if date != "" {
				var err error
				if day, err = model.ParseDate(date); err != nil {
					return err
				}
			}
			h, err := a.tracker.MarkComplete(cmd.Context(), args[0], day)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Habit '%s' marked complete. Streak: %s.\n", h.Name(), service.FormatStreak(h))
			return nil
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "completion date YYYY-MM-DD")
	return cmd
}

func newDueCmd(a *app) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:         "due",
		Short:       "Show habits due today (or on --date)",
		Args:        cobra.NoArgs,
		Annotations: quiet,
		RunE: func(cmd *cobra.Command, args []string) error {
			day := a.tracker.Today()
			if date != "" {
				var err error
				if day, err = model.ParseDate(date); err != nil {
					return err
				}
			}
			due := a.tracker.DueOn(day)
			out := cmd.OutOrStdout()
			if len(due) == 0 {
				fmt.Fprintf(out, "No habits due on %s.\n", model.FormatDate(day))
				return nil
			}
			for _, h := range due {
				fmt.Fprintf(out, "%s\t%s\n", h.Name(), service.FormatStreak(h))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "date YYYY-MM-DD")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "stats",
		Short:       "Show the longest streak and struggling habits",
		Args:        cobra.NoArgs,
		Annotations: quiet,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			longest, ok := a.analytics.LongestStreak()
			if !ok {
				fmt.Fprintln(out, "No habits to analyze.")
				return nil
			}
			fmt.Fprintf(out, "Longest streak: %d\n", longest)
			struggled := a.analytics.StruggledHabits()
			if len(struggled) == 0 {
				fmt.Fprintln(out, "No weak habits detected.")
				return nil
			}
			fmt.Fprintln(out, "Habits with low streaks:")
			for _, h := range struggled {
				fmt.Fprintf(out, "- %s (Streak: %d)\n", h.Name(), h.Streak())
			}
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "delete NAME",
		Short:       "Delete a habit and its history",
		Args:        cobra.ExactArgs(1),
		Annotations: quiet,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tracker.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Habit '%s' deleted.\n", args[0])
			return nil
		},
	}
}

func newRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "rename OLD NEW",
		Short:       "Rename a habit",
		Args:        cobra.ExactArgs(2),
		Annotations: quiet,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.tracker.Edit(cmd.Context(), args[0], service.HabitEdit{NewName: args[1]})
			if errors.Is(err, service.ErrHabitExists) {
				return fmt.Errorf("habit %q already exists", args[1])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Habit '%s' renamed to '%s'.\n", args[0], h.Name())
			return nil
		},
	}
}
