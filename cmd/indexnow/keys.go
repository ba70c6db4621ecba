package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/indexnow-notifier/internal/config"
	"github.com/JakeFAU/indexnow-notifier/internal/keygen"
	"github.com/JakeFAU/indexnow-notifier/internal/logging"
	blob "github.com/JakeFAU/indexnow-notifier/internal/storage"
	"github.com/JakeFAU/indexnow-notifier/internal/storage/gcs"
	"github.com/JakeFAU/indexnow-notifier/internal/storage/local"
)

func runGenerateKey(_ context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("generate-key", flag.ContinueOnError)
	set := fs.Bool("set", false, "Also print the environment assignment for the key")
	if err := fs.Parse(args); err != nil {
		return err
	}
	key, err := keygen.Generate()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(stdout, key)
	if *set {
		_, _ = fmt.Fprintln(stdout, keygen.SettingLine(key))
	}
	return nil
}

func runPublishKey(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("publish-key", flag.ContinueOnError)
	cfgPath := configFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(loggingOptions(cfg))
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	key := cfg.IndexNowSettings().Key()
	if key == "" {
		return errors.New("indexnow.api_key is not set")
	}

	var store blob.ObjectStore
	switch {
	case cfg.Storage.GCSBucket != "":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("create GCS client: %w", err)
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("GCS client close failed", zap.Error(err))
			}
		}()
		gcsStore, err := gcs.New(client, gcs.Config{Bucket: cfg.Storage.GCSBucket})
		if err != nil {
			return err
		}
		store = gcsStore
	case cfg.Storage.LocalDir != "":
		localStore, err := local.New(local.Config{BaseDir: cfg.Storage.LocalDir})
		if err != nil {
			return err
		}
		store = localStore
	default:
		return errors.New("set storage.gcs_bucket or storage.local_dir")
	}

	publisher, err := blob.NewKeyPublisher(store, cfg.Storage.Prefix, logger.Named("storage"))
	if err != nil {
		return err
	}
	uri, err := publisher.Publish(ctx, key)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(stdout, uri)
	return nil
}
