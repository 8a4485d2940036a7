package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/velvet-rope/internal/config"
	"github.com/jonathan/velvet-rope/internal/db"
	"github.com/jonathan/velvet-rope/internal/llm"
	"github.com/jonathan/velvet-rope/internal/metrics"
	"github.com/jonathan/velvet-rope/internal/pipeline"
	"github.com/jonathan/velvet-rope/internal/store"
)

// loadConfig layers the config file, explicitly set flags, the environment
// and finally the built-in defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if rootConfigPath != "" {
		loaded, err := config.LoadConfig(rootConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	flags := cmd.Flags()
	if flags.Changed("state-dir") {
		cfg.StateDir = rootStateDir
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = rootDatabaseURL
	}
	if flags.Changed("log-file") {
		cfg.LogFile = rootLogFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = rootLogLevel
	}
	if flags.Changed("seed") {
		cfg.Seed = rootSeed
	}
	if flags.Changed("verbose") {
		cfg.Verbose = rootVerbose
	}

	env, err := config.FromEnv(os.Getenv)
	if err != nil {
		return cfg, err
	}
	cfg = cfg.MergeWithDefaults(env)
	cfg = cfg.MergeWithDefaults(config.Defaults())

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// app holds everything a command needs, wired from one Config.
type app struct {
	cfg          config.Config
	logger       *slog.Logger
	metrics      *metrics.Manager
	database     *db.DB
	orchestrator *pipeline.Orchestrator
	closers      []func() error
}

type appOptions struct {
	// Offline skips the generative client so every artifact uses its fallback.
	Offline    bool
	OnProgress pipeline.ProgressCallback
}

func newApp(ctx context.Context, cfg config.Config, opts appOptions) (*app, error) {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if !cfg.Verbose && level < slog.LevelWarn && cfg.LogFile == "" {
		// keep the terminal output readable unless asked otherwise
		level = slog.LevelWarn
	}
	logger, closeLog := config.SetupLogger(cfg.LogFile, level)
	slog.SetDefault(logger)

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewManager(),
		closers: []func() error{closeLog},
	}

	var persister store.Persister = store.NewFilePersister(cfg.StateDir)
	var recorder pipeline.RunRecorder
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() error { database.Close(); return nil })
		if err := database.EnsureSchema(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}
		a.database = database
		persister = db.NewStatePersister(database)
		recorder = database
	}

	var client llm.Client
	if !opts.Offline && cfg.APIKey != "" {
		client, err = llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
	} else {
		logger.Info("no generative client configured; every artifact will use its fallback")
	}

	st := store.Open(ctx, persister, store.WithLogger(logger), store.WithMetrics(a.metrics))
	a.orchestrator = pipeline.New(st, pipeline.Options{
		Client:      client,
		Concurrency: cfg.Concurrency,
		Seed:        cfg.Seed,
		Scatter:     cfg.Scatter,
		Recorder:    recorder,
		Logger:      logger,
		Metrics:     a.metrics,
		OnProgress:  opts.OnProgress,
	})
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
