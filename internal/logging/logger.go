// Package logging provides zap logger helpers.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger flavour.
//   - Development: console encoder with colored levels instead of JSON.
//   - Debug: lower the level to debug so gated success logs are emitted.
//   - Level: when set, the logger is built on it so callers can change the
//     level while the process runs.
type Options struct {
	Development bool
	Debug       bool
	Level       *zap.AtomicLevel
}

// LevelFor returns the minimum level New applies for opts.
func LevelFor(opts Options) zapcore.Level {
	if opts.Development || opts.Debug {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

// New builds a zap.Logger configured for development or production.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.DisableStacktrace = false
	}
	cfg.EncoderConfig.TimeKey = "ts"
	if opts.Level != nil {
		opts.Level.SetLevel(LevelFor(opts))
		cfg.Level = *opts.Level
	} else {
		cfg.Level = zap.NewAtomicLevelAt(LevelFor(opts))
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Named("indexnow-notifier"), nil
}
