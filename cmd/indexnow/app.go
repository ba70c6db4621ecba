package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/JakeFAU/indexnow-notifier/internal/clock/system"
	"github.com/JakeFAU/indexnow-notifier/internal/config"
	"github.com/JakeFAU/indexnow-notifier/internal/dedupe"
	"github.com/JakeFAU/indexnow-notifier/internal/id/uuid"
	"github.com/JakeFAU/indexnow-notifier/internal/indexnow"
	"github.com/JakeFAU/indexnow-notifier/internal/logging"
	"github.com/JakeFAU/indexnow-notifier/internal/ratelimit"
	"github.com/JakeFAU/indexnow-notifier/internal/storage/postgres"
)

// app holds the wiring shared by every subcommand that submits URLs.
type app struct {
	cfg      *config.Manager
	logger   *zap.Logger
	notifier *indexnow.Notifier
	store    *postgres.SubmissionStore
}

func configFlag(fs *flag.FlagSet) *string {
	return fs.String("config", "", "Path to config file")
}

func loggingOptions(cfg config.Config) logging.Options {
	return logging.Options{
		Development: cfg.Logging.Development,
		Debug:       cfg.IndexNow.DebugLogging,
	}
}

// newLogger builds the process logger on level and keeps level in step with
// indexnow.debug_logging across config reloads.
func newLogger(manager *config.Manager, level zap.AtomicLevel) (*zap.Logger, error) {
	opts := loggingOptions(manager.Current())
	opts.Level = &level
	logger, err := logging.New(opts)
	if err != nil {
		return nil, fmt.Errorf("logger init: %w", err)
	}
	manager.OnReload(func(cfg config.Config) {
		level.SetLevel(logging.LevelFor(loggingOptions(cfg)))
	})
	return logger, nil
}

func newApp(ctx context.Context, cfgPath string) (*app, error) {
	manager, err := config.NewManager(cfgPath, nil)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := manager.Current()
	logger, err := newLogger(manager, zap.NewAtomicLevel())
	if err != nil {
		return nil, err
	}
	manager.SetLogger(logger.Named("config"))
	zap.ReplaceGlobals(logger)

	a := &app{cfg: manager, logger: logger}

	var recorder indexnow.Recorder
	if cfg.DB.DSN != "" {
		store, err := postgres.NewSubmissionStore(ctx, postgres.SubmissionStoreConfig{
			DSN:      cfg.DB.DSN,
			Table:    cfg.DB.Table,
			MaxConns: cfg.DB.MaxConns,
		}, uuid.New())
		if err != nil {
			_ = logger.Sync()
			return nil, fmt.Errorf("submission store: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			_ = logger.Sync()
			return nil, err
		}
		a.store = store
		recorder = store
		logger.Info("submission audit log enabled", zap.String("table", cfg.DB.Table))
	}

	cache := dedupe.New(system.New(), dedupe.Config{MaxEntries: cfg.IndexNow.DedupeMaxEntries})
	client := indexnow.NewClient(manager, &http.Client{}, recorder, logger.Named("client")).
		WithThrottle(ratelimit.New(ratelimit.Config{
			RPS:   cfg.IndexNow.RateLimitRPS,
			Burst: cfg.IndexNow.RateLimitBurst,
		}))
	a.notifier = indexnow.NewNotifier(manager, manager, cache, client, logger.Named("notifier"))
	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	_ = a.logger.Sync()
}
