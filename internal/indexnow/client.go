package indexnow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/indexnow-notifier/internal/metrics"
)

const maxDrainBytes = 64 << 10

// Throttle delays a request to endpoint until it may be sent.
type Throttle interface {
	Wait(ctx context.Context, endpoint string) error
}

// Client posts payloads to the configured IndexNow endpoint. Submit never
// returns an error: transport failures are logged, recorded, and dropped.
type Client struct {
	settings   SettingsSource
	httpClient *http.Client
	recorder   Recorder
	throttle   Throttle
	logger     *zap.Logger
}

// NewClient builds a Client. httpClient, recorder, and logger are optional.
func NewClient(settings SettingsSource, httpClient *http.Client, recorder Recorder, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		settings:   settings,
		httpClient: httpClient,
		recorder:   recorder,
		logger:     logger,
	}
}

// WithThrottle makes every submission wait on t first. The wait counts
// against the request timeout.
func (c *Client) WithThrottle(t Throttle) *Client {
	c.throttle = t
	return c
}

// Submit sends payload synchronously, bounded by the configured timeout.
func (c *Client) Submit(ctx context.Context, payload Payload) {
	s := c.settings.IndexNowSettings().withDefaults()

	start := time.Now()
	status, err := c.post(ctx, s, payload)
	elapsed := time.Since(start)

	attempt := Attempt{
		Endpoint:    s.Endpoint,
		Host:        payload.Host,
		URLs:        payload.URLList,
		StatusCode:  status,
		Duration:    elapsed,
		SubmittedAt: start.UTC(),
	}
	if err != nil {
		attempt.Error = err.Error()
		metrics.ObserveSubmission(s.Endpoint, metrics.ResultFailure, elapsed)
		c.logger.Error("IndexNow submission failed",
			zap.String("endpoint", s.Endpoint),
			zap.Strings("urls", payload.URLList),
			zap.Error(err),
		)
	} else {
		metrics.ObserveSubmission(s.Endpoint, metrics.ResultSuccess, elapsed)
		if s.DebugLogging {
			c.logger.Debug("IndexNow submission succeeded",
				zap.Strings("urls", payload.URLList),
				zap.Int("status", status),
			)
		}
	}
	c.record(ctx, attempt)
}

func (c *Client) post(ctx context.Context, s Settings, payload Payload) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, &TransportError{Endpoint: s.Endpoint, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	if c.throttle != nil {
		if err := c.throttle.Wait(ctx, s.Endpoint); err != nil {
			return 0, &TransportError{Endpoint: s.Endpoint, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, &TransportError{Endpoint: s.Endpoint, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &TransportError{Endpoint: s.Endpoint, Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("close response body", zap.Error(cerr))
		}
	}()
	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes)); err != nil {
		c.logger.Debug("drain response body", zap.Error(err))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return resp.StatusCode, &TransportError{
			Endpoint:   s.Endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) record(ctx context.Context, attempt Attempt) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.RecordSubmission(ctx, attempt); err != nil {
		c.logger.Warn("record IndexNow submission failed", zap.Error(err))
	}
}
