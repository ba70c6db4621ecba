package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/JakeFAU/indexnow-notifier/internal/api"
	feedpubsub "github.com/JakeFAU/indexnow-notifier/internal/feed/pubsub"
	"github.com/JakeFAU/indexnow-notifier/internal/indexnow"
	"github.com/JakeFAU/indexnow-notifier/internal/metrics"
	"github.com/JakeFAU/indexnow-notifier/internal/signal"
)

func runServe(ctx context.Context, args []string, _ io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	cfgPath := configFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(ctx, *cfgPath)
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger
	cfg := a.cfg.Current()
	a.cfg.Watch()
	metrics.Init()

	signals := signal.NewRegistry()
	changed := signals.Signal(indexnow.SignalName)
	receiver := indexnow.NewReceiver(a.cfg, a.cfg, a.notifier)
	receiver.Connect(changed)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	feedDone := make(chan struct{})
	if cfg.PubSub.Subscription != "" {
		client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return fmt.Errorf("create pubsub client: %w", err)
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("pubsub client close failed", zap.Error(err))
			}
		}()
		sub, err := feedpubsub.NewSubscriber(client.Subscription(cfg.PubSub.Subscription), changed, logger.Named("feed"))
		if err != nil {
			return err
		}
		go func() {
			defer close(feedDone)
			if err := sub.Run(ctx); err != nil {
				logger.Error("change feed stopped", zap.Error(err))
				cancel()
			}
		}()
	} else {
		close(feedDone)
	}

	apiServer := api.NewServer(a.cfg, a.notifier, changed, cfg.Auth, logger.Named("api"))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started",
			zap.Int("port", cfg.Server.Port),
			zap.Bool("indexnow_enabled", a.notifier.Enabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	select {
	case <-feedDone:
	case <-shutdownCtx.Done():
		logger.Warn("change feed did not stop before shutdown deadline")
	}
	logger.Info("shutdown complete")
	return nil
}
