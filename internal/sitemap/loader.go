// Package sitemap imports page URLs from XML sitemaps and sitemap indexes.
package sitemap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Config bounds a sitemap import.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// MaxURLs stops the import once this many URLs were collected. Zero
	// means unlimited.
	MaxURLs int
}

// Loader walks a sitemap and any nested sitemaps on the same host.
type Loader struct {
	cfg       Config
	transport http.RoundTripper
	logger    *zap.Logger
}

// NewLoader builds a Loader.
func NewLoader(cfg Config, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{cfg: cfg, transport: newHTTPTransport(), logger: logger}
}

// Load returns page URLs listed under sitemapURL, in document order and
// without duplicates. URLs on other hosts are skipped. Fetch errors on nested
// sitemaps are returned alongside the URLs that were collected.
func (l *Loader) Load(ctx context.Context, sitemapURL string) ([]string, error) {
	root, err := url.Parse(strings.TrimSpace(sitemapURL))
	if err != nil || root.Host == "" || (root.Scheme != "http" && root.Scheme != "https") {
		return nil, fmt.Errorf("invalid sitemap url %q", sitemapURL)
	}
	host := strings.ToLower(root.Hostname())

	var (
		urls      []string
		seen      = make(map[string]struct{})
		fetchErrs error
	)
	full := func() bool {
		return l.cfg.MaxURLs > 0 && len(urls) >= l.cfg.MaxURLs
	}

	collector := l.buildCollector(ctx, host)
	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil || full() {
			r.Abort()
		}
	})
	collector.OnXML("//sitemap/loc", func(e *colly.XMLElement) {
		if full() {
			return
		}
		child := strings.TrimSpace(e.Text)
		if !sameHost(child, host) {
			l.logger.Debug("Skipping foreign sitemap", zap.String("sitemap", child))
			return
		}
		// Fetch failures surface through OnError.
		if err := e.Request.Visit(child); err != nil && !isBenignVisitError(err) {
			l.logger.Debug("Nested sitemap visit failed", zap.String("sitemap", child), zap.Error(err))
		}
	})
	collector.OnXML("//url/loc", func(e *colly.XMLElement) {
		if full() {
			return
		}
		loc := strings.TrimSpace(e.Text)
		if loc == "" || !sameHost(loc, host) {
			return
		}
		if _, dup := seen[loc]; dup {
			return
		}
		seen[loc] = struct{}{}
		urls = append(urls, loc)
	})
	collector.OnError(func(r *colly.Response, err error) {
		fetchErrs = multierr.Append(fetchErrs, fmt.Errorf("fetch %s (status %d): %w", r.Request.URL, r.StatusCode, err))
	})

	if err := l.runCollector(ctx, collector, root.String()); err != nil {
		return nil, err
	}
	l.logger.Info("Sitemap loaded",
		zap.String("sitemap", root.String()),
		zap.Int("urls", len(urls)),
		zap.Bool("truncated", full()),
	)
	return urls, fetchErrs
}

func (l *Loader) buildCollector(ctx context.Context, host string) *colly.Collector {
	collector := colly.NewCollector(
		colly.Async(false),
		colly.StdlibContext(ctx),
		colly.AllowedDomains(host),
		colly.IgnoreRobotsTxt(),
	)
	collector.WithTransport(l.transport)
	if l.cfg.UserAgent != "" {
		collector.UserAgent = l.cfg.UserAgent
	}
	timeout := l.cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	collector.SetRequestTimeout(timeout)
	collector.MaxBodySize = 64 << 20
	return collector
}

func (l *Loader) runCollector(ctx context.Context, collector *colly.Collector, target string) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(target)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("sitemap load canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil && !isBenignVisitError(err) {
			return fmt.Errorf("visit sitemap: %w", err)
		}
		return nil
	}
}

func isBenignVisitError(err error) bool {
	var already *colly.AlreadyVisitedError
	return errors.As(err, &already) || errors.Is(err, colly.ErrAbortedAfterHeaders)
}

func sameHost(raw, host string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.ToLower(u.Hostname()) == host
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 15 * time.Second,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
	}
}
