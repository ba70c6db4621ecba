// Package config loads and validates notifier configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/indexnow-notifier/internal/indexnow"
)

// EnvPrefix prefixes every environment override, e.g. NOTIFIER_INDEXNOW_API_KEY.
const EnvPrefix = "NOTIFIER"

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Site     SiteConfig     `mapstructure:"site"`
	IndexNow IndexNowConfig `mapstructure:"indexnow"`
	DB       DBConfig       `mapstructure:"db"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Sitemap  SitemapConfig  `mapstructure:"sitemap"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig guards the operator API.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// SiteConfig describes the site whose URLs are submitted.
type SiteConfig struct {
	Domain string `mapstructure:"domain"`
}

// IndexNowConfig configures the submission client.
type IndexNowConfig struct {
	APIKey           string  `mapstructure:"api_key"`
	Endpoint         string  `mapstructure:"endpoint"`
	TimeoutSeconds   int     `mapstructure:"timeout_seconds"`
	DedupeSeconds    int     `mapstructure:"dedupe_seconds"`
	DedupeMaxEntries int     `mapstructure:"dedupe_max_entries"`
	UserAgent        string  `mapstructure:"user_agent"`
	DebugLogging     bool    `mapstructure:"debug_logging"`
	RateLimitRPS     float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst   int     `mapstructure:"rate_limit_burst"`
}

// DBConfig controls the submission audit log.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// PubSubConfig names the change-feed subscription.
type PubSubConfig struct {
	ProjectID    string `mapstructure:"project_id"`
	Subscription string `mapstructure:"subscription"`
}

// StorageConfig sets where the key file is published.
type StorageConfig struct {
	GCSBucket string `mapstructure:"gcs_bucket"`
	LocalDir  string `mapstructure:"local_dir"`
	Prefix    string `mapstructure:"prefix"`
}

// SitemapConfig bounds sitemap imports.
type SitemapConfig struct {
	MaxURLs        int `mapstructure:"max_urls"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v, err := newViper(path)
	if err != nil {
		return Config{}, err
	}
	return decode(v)
}

func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("site.domain", "")
	v.SetDefault("indexnow.api_key", "")
	v.SetDefault("indexnow.endpoint", indexnow.DefaultEndpoint)
	v.SetDefault("indexnow.timeout_seconds", int(indexnow.DefaultTimeout/time.Second))
	v.SetDefault("indexnow.dedupe_seconds", int(indexnow.DefaultDedupeWindow/time.Second))
	v.SetDefault("indexnow.dedupe_max_entries", 10000)
	v.SetDefault("indexnow.user_agent", indexnow.DefaultUserAgent)
	v.SetDefault("indexnow.debug_logging", false)
	v.SetDefault("indexnow.rate_limit_rps", 0)
	v.SetDefault("indexnow.rate_limit_burst", 1)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.table", "indexnow_submissions")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.subscription", "")
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("storage.local_dir", "")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("sitemap.max_urls", 50000)
	v.SetDefault("sitemap.timeout_seconds", 30)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits. The site domain is
// resolved, and rejected when empty, at submission time.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.IndexNow.TimeoutSeconds <= 0 {
		return fmt.Errorf("indexnow.timeout_seconds must be > 0")
	}
	if strings.TrimSpace(c.IndexNow.Endpoint) == "" {
		return fmt.Errorf("indexnow.endpoint must be set")
	}
	if c.IndexNow.RateLimitRPS < 0 {
		return fmt.Errorf("indexnow.rate_limit_rps must be >= 0")
	}
	if c.PubSub.Subscription != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.subscription is set")
	}
	if c.Sitemap.MaxURLs < 0 {
		return fmt.Errorf("sitemap.max_urls must be >= 0")
	}
	return nil
}

// IndexNowSettings converts the indexnow section into client settings.
func (c Config) IndexNowSettings() indexnow.Settings {
	return indexnow.Settings{
		APIKey:       c.IndexNow.APIKey,
		Endpoint:     c.IndexNow.Endpoint,
		Timeout:      time.Duration(c.IndexNow.TimeoutSeconds) * time.Second,
		DedupeWindow: time.Duration(c.IndexNow.DedupeSeconds) * time.Second,
		UserAgent:    c.IndexNow.UserAgent,
		DebugLogging: c.IndexNow.DebugLogging,
	}
}

// SitemapTimeout converts the sitemap timeout to a duration.
func (c Config) SitemapTimeout() time.Duration {
	return time.Duration(c.Sitemap.TimeoutSeconds) * time.Second
}
