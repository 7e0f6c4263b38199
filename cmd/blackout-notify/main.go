// Command blackout-notify ingests electricity-blackout schedules and
// notifies subscribed Telegram channels when a schedule changes.
//
// Usage:
//
//	blackout-notify process feed --input feed.json
//	blackout-notify process feed --input https://supplier.example/feed
//	blackout-notify process recognition --input result.json
//	blackout-notify cleanup
//	blackout-notify watch --interval 10m
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/svitlobot/blackout-notify/internal/config"
	"github.com/svitlobot/blackout-notify/internal/feed"
	"github.com/svitlobot/blackout-notify/internal/maintenance"
	"github.com/svitlobot/blackout-notify/internal/notifications"
	"github.com/svitlobot/blackout-notify/internal/pipeline"
	"github.com/svitlobot/blackout-notify/internal/render"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "blackout-notify",
		Short: "Blackout schedule change notifier",
	}

	root.AddCommand(processCmd())
	root.AddCommand(cleanupCmd())
	root.AddCommand(watchCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// process command
// --------------------------------------------------------------------------

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process one source document",
	}
	cmd.AddCommand(processFeedCmd())
	cmd.AddCommand(processRecognitionCmd())
	return cmd
}

func processFeedCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Process a supplier feed document (path or URL)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return fmt.Errorf("--input is required")
			}
			return runPipeline(func(ctx context.Context, cfg *config.Config, deps *deps) error {
				raw, err := deps.feed.Fetch(ctx, input)
				if err != nil {
					return err
				}
				return processRaw(ctx, cfg, deps, raw, true)
			})
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "Feed document path or http(s) URL")
	return cmd
}

func processRecognitionCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "recognition",
		Short: "Process a table-recognizer result document",
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return fmt.Errorf("--input is required")
			}
			return runPipeline(func(ctx context.Context, cfg *config.Config, deps *deps) error {
				raw, err := os.ReadFile(input)
				if err != nil {
					return fmt.Errorf("read recognition result: %w", err)
				}
				return processRaw(ctx, cfg, deps, raw, false)
			})
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "Recognition result path")
	return cmd
}

func processRaw(ctx context.Context, cfg *config.Config, deps *deps, raw []byte, isFeed bool) error {
	start := time.Now()
	var result *pipeline.Result
	var err error
	if isFeed {
		result, err = deps.runner.ProcessFeed(ctx, raw)
	} else {
		result, err = deps.runner.ProcessRecognition(ctx, raw)
	}
	if err != nil {
		return err
	}

	deps.logger.Info("run finished",
		"duration", time.Since(start).Round(time.Millisecond),
		"summary", result.Summary())
	for _, e := range result.Errors {
		deps.logger.Error("channel error", "error", e)
	}

	maintenance.Sweep(ctx, retention(cfg), deps.store, []string{cfg.InputDir, cfg.OutDir}, deps.logger)

	if result.ChannelsFailed > 0 {
		return fmt.Errorf("%d channel(s) failed", result.ChannelsFailed)
	}
	return nil
}

// --------------------------------------------------------------------------
// cleanup command
// --------------------------------------------------------------------------

func cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Run the retention sweep once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(func(ctx context.Context, cfg *config.Config, deps *deps) error {
				maintenance.Sweep(ctx, retention(cfg), deps.store, []string{cfg.InputDir, cfg.OutDir}, deps.logger)
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// watch command
// --------------------------------------------------------------------------

func watchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reprocess the newest feed document in the input dir on a ticker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(func(ctx context.Context, cfg *config.Config, deps *deps) error {
				if interval <= 0 {
					interval = cfg.WatchInterval
				}
				go maintenance.Start(ctx, retention(cfg), deps.store,
					[]string{cfg.InputDir, cfg.OutDir}, interval, deps.logger)

				deps.logger.Info("watch started", "dir", cfg.InputDir, "interval", interval)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					watchOnce(ctx, cfg, deps)
					select {
					case <-ticker.C:
					case <-ctx.Done():
						deps.logger.Info("watch stopped")
						return nil
					}
				}
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Poll interval (default WATCH_INTERVAL_MINUTES)")
	return cmd
}

func watchOnce(ctx context.Context, cfg *config.Config, deps *deps) {
	path, err := feed.Latest(cfg.InputDir)
	if err != nil {
		deps.logger.Warn("watch: no feed to process", "error", err)
		return
	}
	raw, err := deps.feed.Fetch(ctx, path)
	if err != nil {
		deps.logger.Error("watch: fetch failed", "path", path, "error", err)
		return
	}
	result, err := deps.runner.ProcessFeed(ctx, raw)
	if err != nil {
		deps.logger.Error("watch: run failed", "path", path, "error", err)
		return
	}
	deps.logger.Info("watch: run finished", "path", path, "summary", result.Summary())
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// deps bundles everything a subcommand needs beyond the config.
type deps struct {
	store  notifications.SeenStore
	runner *pipeline.Runner
	feed   *feed.Client
	logger *slog.Logger
}

// runPipeline handles config loading, dependency wiring, and context
// cancellation for every subcommand.
func runPipeline(fn func(ctx context.Context, cfg *config.Config, deps *deps) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	runLogger := logger.With("run_id", uuid.NewString())
	if len(cfg.Subscriptions) == 0 {
		runLogger.Warn("no channel subscriptions configured; detection still records hashes")
	}

	store, err := newStore(cfg)
	if err != nil {
		return fmt.Errorf("open seen store: %w", err)
	}
	defer store.Close()

	sender, err := newSender(cfg, runLogger)
	if err != nil {
		return err
	}

	quiet := notifications.QuietHours{}
	if cfg.QuietHours != "" {
		start, end, err := config.ParseQuietHours(cfg.QuietHours)
		if err != nil {
			return err
		}
		quiet = notifications.QuietHours{Enabled: true, StartHour: start, EndHour: end}
	}

	dispatcher := notifications.NewDispatcher(
		notifications.NewDetector(store),
		sender,
		render.NewTable(cfg.FontPath),
		quiet,
		runLogger,
	)

	d := &deps{
		store:  store,
		runner: pipeline.NewRunner(cfg, dispatcher, runLogger),
		feed:   feed.NewClient(runLogger),
		logger: runLogger,
	}
	return fn(ctx, cfg, d)
}

func newStore(cfg *config.Config) (notifications.SeenStore, error) {
	if cfg.StoreBackend == config.StoreBackendSQLite {
		return notifications.NewSQLiteStore(cfg.StorePath)
	}
	return notifications.NewDirStore(cfg.StorePath)
}

func newSender(cfg *config.Config, logger *slog.Logger) (notifications.Sender, error) {
	if cfg.DryRun || cfg.TelegramToken == "" {
		return &notifications.LogSender{Logger: logger}, nil
	}
	sender, err := notifications.NewTelegramSender(cfg.TelegramToken, logger)
	if err != nil {
		return nil, err
	}
	return sender, nil
}

func retention(cfg *config.Config) maintenance.Config {
	return maintenance.Config{
		KeepFiles:      cfg.KeepFiles,
		StoreRetention: cfg.StoreRetention,
	}
}
