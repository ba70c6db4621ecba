package indexnow

import (
	"context"
	"sync"

	"github.com/JakeFAU/indexnow-notifier/internal/signal"
)

// SignalName is the name of the change-notification signal.
const SignalName = "indexnow"

// DefaultReceiverUID identifies the default receiver on the signal.
const DefaultReceiverUID = "indexnow.default_receiver"

// URLSubmitter submits a single URL.
type URLSubmitter interface {
	SubmitURL(ctx context.Context, url string) error
}

// Receiver forwards change notifications fired on a signal to the
// submission API.
type Receiver struct {
	settings   SettingsSource
	normalizer *Normalizer
	submitter  URLSubmitter

	mu        sync.Mutex
	connected bool
}

// NewReceiver creates a Receiver resolving relative URLs against sites.
func NewReceiver(settings SettingsSource, sites SiteProvider, submitter URLSubmitter) *Receiver {
	return &Receiver{
		settings:   settings,
		normalizer: NewNormalizer(sites),
		submitter:  submitter,
	}
}

// Connect registers the receiver on sig once. Later calls are no-ops and
// return false.
func (r *Receiver) Connect(sig *signal.Signal) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.connected {
		return false
	}
	sig.Connect(DefaultReceiverUID, r.Receive)
	r.connected = true
	return true
}

// Connected reports whether Connect has succeeded.
func (r *Receiver) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connected
}

// Receive handles one change event. Events without a URL and events fired
// while disabled are ignored. A site that cannot be resolved is returned as
// ErrConfiguration.
func (r *Receiver) Receive(ctx context.Context, evt signal.Event) error {
	if !r.settings.IndexNowSettings().Enabled() {
		return nil
	}
	if evt.URL == "" {
		return nil
	}
	absolute, err := r.normalizer.Normalize(ctx, evt.URL)
	if err != nil {
		return err
	}
	return r.submitter.SubmitURL(ctx, absolute)
}
