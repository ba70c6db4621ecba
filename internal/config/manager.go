package config

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/JakeFAU/indexnow-notifier/internal/indexnow"
)

// Manager serves the current configuration and swaps it when the config file
// changes. It implements indexnow.SettingsSource and indexnow.SiteProvider so
// every submission reads live values.
type Manager struct {
	v       *viper.Viper
	path    string
	logger  *zap.Logger
	current atomic.Pointer[Config]

	mu       sync.Mutex
	watching bool
	onReload []func(Config)
}

// NewManager loads path (optional) and returns a Manager holding the result.
func NewManager(path string, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	m := &Manager{v: v, path: path, logger: logger}
	m.current.Store(&cfg)
	return m, nil
}

// SetLogger replaces the logger used to report reloads.
func (m *Manager) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// OnReload registers fn to run with the new snapshot after every successful
// reload.
func (m *Manager) OnReload(fn func(Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReload = append(m.onReload, fn)
}

// Current returns the active configuration snapshot.
func (m *Manager) Current() Config {
	return *m.current.Load()
}

// Reload re-reads the config file and swaps the snapshot. An invalid file
// leaves the previous snapshot in place.
func (m *Manager) Reload() error {
	m.mu.Lock()
	if m.path != "" {
		if err := m.v.ReadInConfig(); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("read config: %w", err)
		}
	}
	err := m.applyLocked()
	hooks := m.onReload
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.notify(hooks)
	return nil
}

// Watch starts watching the config file for changes. It is a no-op when no
// file was given or watching already started.
func (m *Manager) Watch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.path == "" || m.watching {
		return
	}
	m.v.OnConfigChange(func(e fsnotify.Event) {
		m.mu.Lock()
		err := m.applyLocked()
		logger, hooks := m.logger, m.onReload
		m.mu.Unlock()
		if err != nil {
			logger.Error("config reload rejected; keeping previous configuration",
				zap.String("file", e.Name), zap.Error(err))
			return
		}
		logger.Info("config reloaded", zap.String("file", e.Name), zap.String("op", e.Op.String()))
		m.notify(hooks)
	})
	m.v.WatchConfig()
	m.watching = true
}

func (m *Manager) applyLocked() error {
	cfg, err := decode(m.v)
	if err != nil {
		return err
	}
	m.current.Store(&cfg)
	return nil
}

func (m *Manager) notify(hooks []func(Config)) {
	cfg := m.Current()
	for _, fn := range hooks {
		fn(cfg)
	}
}

// IndexNowSettings implements indexnow.SettingsSource.
func (m *Manager) IndexNowSettings() indexnow.Settings {
	return m.Current().IndexNowSettings()
}

// CurrentSite implements indexnow.SiteProvider.
func (m *Manager) CurrentSite(context.Context) (indexnow.Site, error) {
	return indexnow.Site{Domain: m.Current().Site.Domain}, nil
}
