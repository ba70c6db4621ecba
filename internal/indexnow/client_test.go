package indexnow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestClientPostsPayloadWithHeaders(t *testing.T) {
	t.Parallel()

	endpoint := newFakeEndpoint(t, http.StatusOK)
	recorder := &recordingRecorder{}
	client := NewClient(StaticSettings(Settings{
		APIKey:    "testkey",
		Endpoint:  endpoint.URL(),
		Timeout:   7 * time.Second,
		UserAgent: "indexnow-notifier/test",
	}), nil, recorder, zap.NewNop())

	payload := Payload{
		Host:        "example.com",
		Key:         "testkey",
		KeyLocation: "https://example.com/testkey.txt",
		URLList:     []string{"https://example.com/path/"},
	}
	client.Submit(context.Background(), payload)

	reqs := endpoint.Requests()
	require.Len(t, reqs, 1)
	require.Equal(t, http.MethodPost, reqs[0].Method)
	require.Equal(t, "application/json; charset=utf-8", reqs[0].Header.Get("Content-Type"))
	require.Equal(t, "indexnow-notifier/test", reqs[0].UserAgent)
	require.JSONEq(t,
		`{"host":"example.com","key":"testkey","keyLocation":"https://example.com/testkey.txt","urlList":["https://example.com/path/"]}`,
		string(reqs[0].Body),
	)

	attempts := recorder.Attempts()
	require.Len(t, attempts, 1)
	require.True(t, attempts[0].Succeeded())
	require.Equal(t, http.StatusOK, attempts[0].StatusCode)
	require.Equal(t, endpoint.URL(), attempts[0].Endpoint)
}

func TestClientDefaultUserAgent(t *testing.T) {
	t.Parallel()

	endpoint := newFakeEndpoint(t, http.StatusAccepted)
	client := NewClient(StaticSettings(Settings{APIKey: "k", Endpoint: endpoint.URL()}), nil, nil, nil)
	client.Submit(context.Background(), Payload{URLList: []string{"https://example.com/a"}})

	reqs := endpoint.Requests()
	require.Len(t, reqs, 1)
	require.Equal(t, DefaultUserAgent, reqs[0].UserAgent)
}

func TestClientSwallowsBadStatus(t *testing.T) {
	t.Parallel()

	endpoint := newFakeEndpoint(t, http.StatusUnprocessableEntity)
	recorder := &recordingRecorder{}
	core, logs := observer.New(zapcore.DebugLevel)
	client := NewClient(StaticSettings(Settings{APIKey: "k", Endpoint: endpoint.URL()}), nil, recorder, zap.New(core))

	require.NotPanics(t, func() {
		client.Submit(context.Background(), Payload{URLList: []string{"https://example.com/a"}})
	})

	require.Equal(t, 1, logs.FilterMessage("IndexNow submission failed").Len())
	attempts := recorder.Attempts()
	require.Len(t, attempts, 1)
	require.False(t, attempts[0].Succeeded())
	require.Equal(t, http.StatusUnprocessableEntity, attempts[0].StatusCode)
}

func TestClientSwallowsConnectionFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	endpointURL := srv.URL + "/indexnow"
	srv.Close()

	recorder := &recordingRecorder{}
	client := NewClient(StaticSettings(Settings{APIKey: "k", Endpoint: endpointURL}), nil, recorder, nil)
	client.Submit(context.Background(), Payload{URLList: []string{"https://example.com/a"}})

	attempts := recorder.Attempts()
	require.Len(t, attempts, 1)
	require.Zero(t, attempts[0].StatusCode)
	require.NotEmpty(t, attempts[0].Error)
}

func TestClientTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	recorder := &recordingRecorder{}
	client := NewClient(StaticSettings(Settings{
		APIKey:   "k",
		Endpoint: srv.URL,
		Timeout:  50 * time.Millisecond,
	}), nil, recorder, nil)

	start := time.Now()
	client.Submit(context.Background(), Payload{URLList: []string{"https://example.com/a"}})
	require.Less(t, time.Since(start), 5*time.Second)

	attempts := recorder.Attempts()
	require.Len(t, attempts, 1)
	require.Contains(t, attempts[0].Error, "deadline exceeded")
}

func TestClientDebugLoggingGated(t *testing.T) {
	t.Parallel()

	endpoint := newFakeEndpoint(t, http.StatusOK)
	settings := &mutableSettings{s: Settings{APIKey: "k", Endpoint: endpoint.URL()}}
	core, logs := observer.New(zapcore.DebugLevel)
	client := NewClient(settings, nil, nil, zap.New(core))

	client.Submit(context.Background(), Payload{URLList: []string{"https://example.com/a"}})
	require.Zero(t, logs.FilterMessage("IndexNow submission succeeded").Len())

	settings.Update(func(s *Settings) { s.DebugLogging = true })
	client.Submit(context.Background(), Payload{URLList: []string{"https://example.com/a"}})
	require.Equal(t, 1, logs.FilterMessage("IndexNow submission succeeded").Len())
}

func TestClientRecorderFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	endpoint := newFakeEndpoint(t, http.StatusOK)
	recorder := &recordingRecorder{err: context.DeadlineExceeded}
	core, logs := observer.New(zapcore.WarnLevel)
	client := NewClient(StaticSettings(Settings{APIKey: "k", Endpoint: endpoint.URL()}), nil, recorder, zap.New(core))

	client.Submit(context.Background(), Payload{URLList: []string{"https://example.com/a"}})
	require.Equal(t, 1, logs.FilterMessage("record IndexNow submission failed").Len())
}

type stubThrottle struct {
	mu        sync.Mutex
	endpoints []string
	err       error
}

func (s *stubThrottle) Wait(_ context.Context, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoints = append(s.endpoints, endpoint)
	return s.err
}

func TestClientWaitsOnThrottle(t *testing.T) {
	t.Parallel()

	endpoint := newFakeEndpoint(t, http.StatusOK)
	throttle := &stubThrottle{}
	client := NewClient(StaticSettings(Settings{APIKey: "k", Endpoint: endpoint.URL()}), nil, nil, nil).
		WithThrottle(throttle)

	client.Submit(context.Background(), Payload{URLList: []string{"https://example.com/a"}})
	require.Equal(t, []string{endpoint.URL()}, throttle.endpoints)
	require.Len(t, endpoint.Requests(), 1)
}

func TestClientThrottleFailureSkipsRequest(t *testing.T) {
	t.Parallel()

	endpoint := newFakeEndpoint(t, http.StatusOK)
	recorder := &recordingRecorder{}
	client := NewClient(StaticSettings(Settings{APIKey: "k", Endpoint: endpoint.URL()}), nil, recorder, nil).
		WithThrottle(&stubThrottle{err: context.DeadlineExceeded})

	client.Submit(context.Background(), Payload{URLList: []string{"https://example.com/a"}})
	require.Empty(t, endpoint.Requests())
	attempts := recorder.Attempts()
	require.Len(t, attempts, 1)
	require.Contains(t, attempts[0].Error, "deadline exceeded")
}

func TestTransportErrorMessage(t *testing.T) {
	t.Parallel()

	err := &TransportError{Endpoint: "https://api.test", StatusCode: 403, Err: context.Canceled}
	require.Contains(t, err.Error(), "status 403")
	require.ErrorIs(t, err, context.Canceled)
}
