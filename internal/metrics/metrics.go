// Package metrics exposes Prometheus collectors for the IndexNow notifier.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// URL outcomes at the dedupe gate.
const (
	OutcomeAccepted = "accepted"
	OutcomeDeduped  = "deduped"
)

// Feed message dispositions.
const (
	FeedAcked  = "acked"
	FeedNacked = "nacked"
)

var (
	submissionsTotal           *prometheus.CounterVec
	submissionDurationSeconds  *prometheus.HistogramVec
	urlsTotal                  *prometheus.CounterVec
	dedupeEntries              prometheus.Gauge
	feedMessagesTotal          *prometheus.CounterVec
	throttleDelaySeconds       *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		submissionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "indexnow_submissions_total",
				Help: "Total number of outbound IndexNow submissions, labeled by endpoint host and result.",
			},
			[]string{"endpoint", "result"},
		)

		submissionDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "indexnow_submission_duration_seconds",
				Help:    "Histogram of outbound IndexNow submission latencies, labeled by endpoint host.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"endpoint"},
		)

		urlsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "indexnow_urls_total",
				Help: "Total number of normalized URLs seen by the dedupe gate, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		dedupeEntries = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "indexnow_dedupe_entries",
				Help: "Number of URLs currently tracked by the dedupe cache.",
			},
		)

		feedMessagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "indexnow_feed_messages_total",
				Help: "Total number of change-feed messages handled, labeled by disposition.",
			},
			[]string{"disposition"},
		)

		throttleDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "indexnow_throttle_delay_seconds",
				Help:    "Time outbound submissions spent waiting for the per-endpoint rate limiter.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"endpoint"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveSubmission records one outbound submission attempt.
func ObserveSubmission(endpoint, result string, duration time.Duration) {
	Init()
	host := SanitizeSite(endpoint)
	submissionsTotal.WithLabelValues(host, result).Inc()
	submissionDurationSeconds.WithLabelValues(host).Observe(duration.Seconds())
}

// ObserveURLs adds n URLs to the given gate outcome.
func ObserveURLs(outcome string, n int) {
	Init()
	if n <= 0 {
		return
	}
	urlsTotal.WithLabelValues(outcome).Add(float64(n))
}

// SetDedupeEntries records the current dedupe cache size.
func SetDedupeEntries(n int) {
	Init()
	dedupeEntries.Set(float64(n))
}

// ObserveFeedMessage counts one change-feed message.
func ObserveFeedMessage(disposition string) {
	Init()
	feedMessagesTotal.WithLabelValues(disposition).Inc()
}

// ObserveThrottleDelay records time spent waiting on the rate limiter.
func ObserveThrottleDelay(host string, d time.Duration) {
	Init()
	throttleDelaySeconds.WithLabelValues(host).Observe(d.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
