package indexnow

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Version is reported in the default User-Agent.
const Version = "0.3.0"

// Defaults applied when a setting is left empty.
const (
	DefaultEndpoint     = "https://api.indexnow.org/indexnow"
	DefaultTimeout      = 5 * time.Second
	DefaultDedupeWindow = 60 * time.Second
	DefaultUserAgent    = "indexnow-notifier/" + Version
)

// Settings is a snapshot of the notifier configuration.
type Settings struct {
	// APIKey identifies the site to the indexing service. An empty key
	// disables the whole subsystem.
	APIKey string
	// Endpoint is the submission URL.
	Endpoint string
	// Timeout bounds each outbound submission.
	Timeout time.Duration
	// DedupeWindow suppresses resubmission of a URL; <= 0 disables dedupe.
	DedupeWindow time.Duration
	// UserAgent is sent with every submission.
	UserAgent string
	// DebugLogging enables debug-level success logs.
	DebugLogging bool
}

// Key returns the trimmed API key.
func (s Settings) Key() string {
	return strings.TrimSpace(s.APIKey)
}

// Enabled reports whether an API key is configured.
func (s Settings) Enabled() bool {
	return s.Key() != ""
}

func (s Settings) withDefaults() Settings {
	if strings.TrimSpace(s.Endpoint) == "" {
		s.Endpoint = DefaultEndpoint
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	if s.UserAgent == "" {
		s.UserAgent = DefaultUserAgent
	}
	return s
}

// SettingsSource returns the settings in effect right now. It is consulted on
// every operation so configuration changes apply to the next submission.
type SettingsSource interface {
	IndexNowSettings() Settings
}

// SettingsFunc adapts a function to SettingsSource.
type SettingsFunc func() Settings

// IndexNowSettings calls f.
func (f SettingsFunc) IndexNowSettings() Settings {
	return f()
}

// StaticSettings returns a SettingsSource that always yields s.
func StaticSettings(s Settings) SettingsSource {
	return SettingsFunc(func() Settings { return s })
}

// Site describes the site being indexed.
type Site struct {
	Domain string
}

// Host returns the trimmed site domain.
func (s Site) Host() string {
	return strings.TrimSpace(s.Domain)
}

// BaseURL returns the https origin of the site.
func (s Site) BaseURL() (string, error) {
	host := s.Host()
	if host == "" {
		return "", configurationError("current site has an empty domain")
	}
	return "https://" + host, nil
}

// SiteProvider resolves the current site.
type SiteProvider interface {
	CurrentSite(ctx context.Context) (Site, error)
}

// SiteFunc adapts a function to SiteProvider.
type SiteFunc func(ctx context.Context) (Site, error)

// CurrentSite calls f.
func (f SiteFunc) CurrentSite(ctx context.Context) (Site, error) {
	return f(ctx)
}

// StaticSite returns a SiteProvider for a fixed domain.
func StaticSite(domain string) SiteProvider {
	return SiteFunc(func(context.Context) (Site, error) {
		return Site{Domain: domain}, nil
	})
}

func currentSite(ctx context.Context, sites SiteProvider) (Site, error) {
	if sites == nil {
		return Site{}, configurationError("no site provider configured")
	}
	site, err := sites.CurrentSite(ctx)
	if err != nil {
		return Site{}, fmt.Errorf("%w: could not resolve current site: %w", ErrConfiguration, err)
	}
	if site.Host() == "" {
		return Site{}, configurationError("current site has an empty domain")
	}
	return site, nil
}
