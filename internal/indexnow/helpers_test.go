package indexnow

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type capturedRequest struct {
	Method    string
	Header    http.Header
	Body      []byte
	Payload   Payload
	UserAgent string
}

type fakeEndpoint struct {
	server *httptest.Server
	status int

	mu       sync.Mutex
	requests []capturedRequest
}

func newFakeEndpoint(t *testing.T, status int) *fakeEndpoint {
	t.Helper()
	f := &fakeEndpoint{status: status}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var payload Payload
		if err := json.Unmarshal(body, &payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.requests = append(f.requests, capturedRequest{
			Method:    r.Method,
			Header:    r.Header.Clone(),
			Body:      body,
			Payload:   payload,
			UserAgent: r.UserAgent(),
		})
		f.mu.Unlock()
		w.WriteHeader(f.status)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeEndpoint) URL() string {
	return f.server.URL + "/indexnow"
}

func (f *fakeEndpoint) Requests() []capturedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]capturedRequest(nil), f.requests...)
}

type mutableSettings struct {
	mu sync.Mutex
	s  Settings
}

func (m *mutableSettings) IndexNowSettings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s
}

func (m *mutableSettings) Update(fn func(*Settings)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.s)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingSubmitter struct {
	mu       sync.Mutex
	payloads []Payload
}

func (r *recordingSubmitter) Submit(_ context.Context, payload Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, payload)
}

func (r *recordingSubmitter) Payloads() []Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Payload(nil), r.payloads...)
}

type recordingRecorder struct {
	mu       sync.Mutex
	attempts []Attempt
	err      error
}

func (r *recordingRecorder) RecordSubmission(_ context.Context, attempt Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, attempt)
	return r.err
}

func (r *recordingRecorder) Attempts() []Attempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Attempt(nil), r.attempts...)
}
