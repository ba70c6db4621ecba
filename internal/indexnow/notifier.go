package indexnow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/indexnow-notifier/internal/metrics"
)

// Gate decides whether a normalized URL may be submitted now.
type Gate interface {
	ShouldSubmit(url string, ttl time.Duration) bool
}

// Submitter delivers a payload. Implementations swallow transport errors.
type Submitter interface {
	Submit(ctx context.Context, payload Payload)
}

type sizer interface {
	Len() int
}

// Notifier is the public submission API.
type Notifier struct {
	settings   SettingsSource
	normalizer *Normalizer
	builder    *PayloadBuilder
	gate       Gate
	submitter  Submitter
	logger     *zap.Logger
}

// NewNotifier wires the submission pipeline. A nil gate disables dedupe.
func NewNotifier(
	settings SettingsSource,
	sites SiteProvider,
	gate Gate,
	submitter Submitter,
	logger *zap.Logger,
) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		settings:   settings,
		normalizer: NewNormalizer(sites),
		builder:    NewPayloadBuilder(settings, sites),
		gate:       gate,
		submitter:  submitter,
		logger:     logger,
	}
}

// Enabled reports whether an API key is currently configured.
func (n *Notifier) Enabled() bool {
	return n.settings.IndexNowSettings().Enabled()
}

// SubmitURL submits a single URL. See SubmitURLs.
func (n *Notifier) SubmitURL(ctx context.Context, url string) error {
	return n.SubmitURLs(ctx, []string{url})
}

// SubmitURLs normalizes urls, drops those inside their dedupe window, and
// submits the rest in one request. It is a no-op when disabled. Only
// configuration and URL errors are returned; network failures are not.
func (n *Notifier) SubmitURLs(ctx context.Context, urls []string) error {
	s := n.settings.IndexNowSettings()
	if !s.Enabled() {
		return nil
	}

	normalized, err := n.normalizer.NormalizeAll(ctx, urls)
	if err != nil {
		return err
	}
	// Reject the batch before any URL opens a dedupe window.
	if err := requireAbsolute(normalized); err != nil {
		return err
	}

	filtered := make([]string, 0, len(normalized))
	for _, u := range normalized {
		if n.gate == nil || n.gate.ShouldSubmit(u, s.DedupeWindow) {
			filtered = append(filtered, u)
		}
	}
	metrics.ObserveURLs(metrics.OutcomeAccepted, len(filtered))
	metrics.ObserveURLs(metrics.OutcomeDeduped, len(normalized)-len(filtered))
	if sz, ok := n.gate.(sizer); ok {
		metrics.SetDedupeEntries(sz.Len())
	}

	if len(filtered) == 0 {
		if len(normalized) > 0 {
			n.logger.Debug("all URLs deduplicated; skipping submission", zap.Strings("urls", normalized))
		}
		return nil
	}

	payload, err := n.builder.Build(ctx, filtered)
	if err != nil {
		return err
	}
	n.submitter.Submit(ctx, payload)
	return nil
}
