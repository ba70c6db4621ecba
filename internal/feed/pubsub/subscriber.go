// Package pubsub consumes content-change messages from a Google Cloud Pub/Sub
// subscription and fires them on the IndexNow signal.
package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/JakeFAU/indexnow-notifier/internal/indexnow"
	"github.com/JakeFAU/indexnow-notifier/internal/metrics"
	"github.com/JakeFAU/indexnow-notifier/internal/signal"
)

// SenderAttribute is the message attribute naming the publisher when the
// body does not carry one.
const SenderAttribute = "sender"

// Sender fires an event. *signal.Signal satisfies it.
type Sender interface {
	Send(ctx context.Context, evt signal.Event) error
}

// MessageSource delivers messages until ctx ends. *pubsub.Subscription
// satisfies it.
type MessageSource interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// Message is the JSON body of a change notification. A body that is not a
// JSON object is treated as a bare URL.
type Message struct {
	URL    string `json:"url"`
	Sender string `json:"sender,omitempty"`
}

// Subscriber pulls change notifications and forwards them to a Sender.
type Subscriber struct {
	source MessageSource
	sender Sender
	logger *zap.Logger
}

// NewSubscriber validates its inputs and returns a Subscriber.
func NewSubscriber(source MessageSource, sender Sender, logger *zap.Logger) (*Subscriber, error) {
	if source == nil {
		return nil, fmt.Errorf("message source is required")
	}
	if sender == nil {
		return nil, fmt.Errorf("sender is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{source: source, sender: sender, logger: logger}, nil
}

// Run receives messages until ctx is cancelled. Cancellation is not an error.
func (s *Subscriber) Run(ctx context.Context) error {
	s.logger.Info("Change feed subscriber started")
	err := s.source.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if s.Process(ctx, msg.Data, msg.Attributes) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("receive change feed: %w", err)
	}
	s.logger.Info("Change feed subscriber stopped")
	return nil
}

// Process handles one message body and reports whether it should be acked.
// Messages that can never succeed are acked and dropped. Configuration
// failures are nacked so they are redelivered once the config is fixed.
func (s *Subscriber) Process(ctx context.Context, data []byte, attrs map[string]string) bool {
	msg, err := Decode(data)
	if err != nil {
		s.logger.Warn("Dropping undecodable change message", zap.Error(err))
		metrics.ObserveFeedMessage(metrics.FeedAcked)
		return true
	}
	if msg.Sender == "" {
		msg.Sender = attrs[SenderAttribute]
	}
	if msg.URL == "" {
		s.logger.Debug("Ignoring change message without url", zap.String("sender", msg.Sender))
		metrics.ObserveFeedMessage(metrics.FeedAcked)
		return true
	}

	err = s.sender.Send(ctx, signal.Event{Sender: msg.Sender, URL: msg.URL})
	switch {
	case err == nil:
		metrics.ObserveFeedMessage(metrics.FeedAcked)
		return true
	case errors.Is(err, indexnow.ErrConfiguration):
		s.logger.Error("Change message rejected by configuration", zap.String("url", msg.URL), zap.Error(err))
		metrics.ObserveFeedMessage(metrics.FeedNacked)
		return false
	default:
		s.logger.Error("Change message handling failed", zap.String("url", msg.URL), zap.Error(err))
		metrics.ObserveFeedMessage(metrics.FeedNacked)
		return false
	}
}

// Decode parses a message body. JSON objects are decoded into Message; any
// other body is taken as a URL after trimming whitespace.
func Decode(data []byte) (Message, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var msg Message
		if err := json.Unmarshal(trimmed, &msg); err != nil {
			return Message{}, fmt.Errorf("decode change message: %w", err)
		}
		msg.URL = strings.TrimSpace(msg.URL)
		return msg, nil
	}
	return Message{URL: string(trimmed)}, nil
}
