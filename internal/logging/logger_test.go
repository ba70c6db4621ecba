// Package logging includes tests for the zap logger helpers.
package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TestNewDevelopmentLogger confirms the development logger builds and logs.
func TestNewDevelopmentLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(Options{Development: true})
	if err != nil {
		t.Fatalf("New(development) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("development logger ready")
}

// TestNewProductionLogger ensures the production logger stays at info level.
func TestNewProductionLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(Options{})
	if err != nil {
		t.Fatalf("New(production) error = %v", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected debug level to be disabled in production")
	}
}

// TestNewDebugLogger checks the debug flag lowers the production level.
func TestNewDebugLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(Options{Debug: true})
	if err != nil {
		t.Fatalf("New(debug) error = %v", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected debug level to be enabled")
	}
}

// TestSharedLevelFollowsUpdates ensures a caller-owned level can toggle debug
// output after the logger is built.
func TestSharedLevelFollowsUpdates(t *testing.T) {
	t.Parallel()

	level := zap.NewAtomicLevel()
	logger, err := New(Options{Level: &level})
	if err != nil {
		t.Fatalf("New(level) error = %v", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected debug level to start disabled")
	}

	level.SetLevel(LevelFor(Options{Debug: true}))
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected debug level to be enabled after update")
	}
}

// TestLevelFor covers the level chosen for each option set.
func TestLevelFor(t *testing.T) {
	t.Parallel()

	if got := LevelFor(Options{}); got != zapcore.InfoLevel {
		t.Fatalf("LevelFor(production) = %v", got)
	}
	if got := LevelFor(Options{Debug: true}); got != zapcore.DebugLevel {
		t.Fatalf("LevelFor(debug) = %v", got)
	}
	if got := LevelFor(Options{Development: true}); got != zapcore.DebugLevel {
		t.Fatalf("LevelFor(development) = %v", got)
	}
}
