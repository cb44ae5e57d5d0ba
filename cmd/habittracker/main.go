package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"habit-tracker/internal/config"
	"habit-tracker/internal/logger"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/service"
)

// annotationQuiet marks commands whose terminal output should not be mixed
// with info-level logs.
const annotationQuiet = "quiet"

type app struct {
	cfg       config.Config
	logger    *zap.Logger
	tracker   *service.Tracker
	analytics *service.Analytics
	closers   []func() error
}

// Close releases whatever open acquired, including after a failed command.
// It is safe to call more than once.
func (a *app) Close() {
	log := a.logger
	if log == nil {
		log = zap.NewNop()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn("close", zap.Error(err))
		}
	}
	a.closers = nil
	_ = log.Sync()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.Close()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	root := &cobra.Command{
		Use:   "habittracker",
		Short: "Track daily and weekly habits and their streaks",
		Long: `habittracker keeps a list of habits with a daily or weekly cadence,
records completions and reports current streaks.

Run without arguments to start the interactive menu.`,
		Annotations:   map[string]string{annotationQuiet: "true"},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd, configPath, verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd, a)
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "configuration file path")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newConsoleCmd(a),
		newBotCmd(a),
		newAddCmd(a),
		newListCmd(a),
		newDoneCmd(a),
		newDueCmd(a),
		newStatsCmd(a),
		newDeleteCmd(a),
		newRenameCmd(a),
	)
	return root
}

func (a *app) open(cmd *cobra.Command, configPath string, verbose bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg

	level := cfg.Log.Level
	switch {
	case verbose:
		level = "debug"
	case cmd.Annotations[annotationQuiet] == "true" && (level == "debug" || level == "info"):
		level = "warn"
	}
	a.logger, err = logger.New(level, cfg.Log.Development)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg, a.logger)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, closeStore)

	a.tracker, err = service.NewTracker(cmd.Context(), store, a.logger.Named("tracker"))
	if err != nil {
		return err
	}
	a.analytics = service.NewAnalytics(a.tracker)
	return nil
}

func openStore(cfg config.Config, log *zap.Logger) (service.Store, func() error, error) {
	switch cfg.Storage.Driver {
	case config.StorageSQLite:
		db, err := repository.NewDB(cfg.Storage.DSN, log)
		if err != nil {
			return nil, nil, fmt.Errorf("db: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("db: %w", err)
		}
		log.Info("using sqlite store", zap.String("dsn", cfg.Storage.DSN))
		return repository.NewSQLiteStore(db, log.Named("store")), sqlDB.Close, nil
	default:
		log.Info("using json store", zap.String("path", cfg.Storage.DataFile))
		return repository.NewJSONFileStore(cfg.Storage.DataFile, log.Named("store")), func() error { return nil }, nil
	}
}
