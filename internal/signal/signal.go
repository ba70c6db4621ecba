// Package signal provides named, multi-subscriber notification channels.
// Receivers run synchronously on the sender's goroutine in connection order,
// so a sender observes every receiver error.
package signal

import (
	"context"
	"sync"

	"go.uber.org/multierr"
)

// Event is the payload carried by a Signal.
type Event struct {
	// Sender optionally identifies the component that fired the signal.
	Sender any
	// URL is the changed resource, absolute or relative to the site origin.
	URL string
	// Extra carries arbitrary sender context.
	Extra map[string]any
}

// Receiver handles one Event.
type Receiver func(ctx context.Context, evt Event) error

type registration struct {
	uid      string
	receiver Receiver
}

// Signal fans an Event out to every connected Receiver.
type Signal struct {
	name string

	mu        sync.RWMutex
	receivers []registration
}

// New creates a standalone Signal.
func New(name string) *Signal {
	return &Signal{name: name}
}

// Name returns the signal name.
func (s *Signal) Name() string {
	return s.name
}

// Connect registers r under uid. It returns false, leaving the existing
// registration in place, when uid is already connected.
func (s *Signal) Connect(uid string, r Receiver) bool {
	if r == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, reg := range s.receivers {
		if reg.uid == uid {
			return false
		}
	}
	s.receivers = append(s.receivers, registration{uid: uid, receiver: r})
	return true
}

// Disconnect removes the receiver registered under uid.
func (s *Signal) Disconnect(uid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, reg := range s.receivers {
		if reg.uid == uid {
			s.receivers = append(s.receivers[:i:i], s.receivers[i+1:]...)
			return true
		}
	}
	return false
}

// Receivers returns the number of connected receivers.
func (s *Signal) Receivers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.receivers)
}

// Send delivers evt to every receiver. All receivers run even when an earlier
// one fails; their errors are combined.
func (s *Signal) Send(ctx context.Context, evt Event) error {
	s.mu.RLock()
	receivers := append([]registration(nil), s.receivers...)
	s.mu.RUnlock()

	var err error
	for _, reg := range receivers {
		err = multierr.Append(err, reg.receiver(ctx, evt))
	}
	return err
}

// Registry hands out signals keyed by name.
type Registry struct {
	mu      sync.Mutex
	signals map[string]*Signal
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{signals: make(map[string]*Signal)}
}

// Signal returns the signal registered under name, creating it on first use.
func (r *Registry) Signal(name string) *Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sig, ok := r.signals[name]; ok {
		return sig
	}
	sig := New(name)
	r.signals[name] = sig
	return sig
}
