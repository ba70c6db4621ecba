package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/indexnow-notifier/internal/config"
	"github.com/JakeFAU/indexnow-notifier/internal/indexnow"
	"github.com/JakeFAU/indexnow-notifier/internal/metrics"
	"github.com/JakeFAU/indexnow-notifier/internal/signal"
)

const (
	// MaxURLsPerRequest mirrors the IndexNow limit for a single POST.
	MaxURLsPerRequest = 10000
	maxBodyBytes      = 4 << 20
	requestTimeout    = 30 * time.Second
)

// Submitter queues URLs for IndexNow submission.
type Submitter interface {
	SubmitURLs(ctx context.Context, urls []string) error
}

// EventSender fires a change event. *signal.Signal satisfies it.
type EventSender interface {
	Send(ctx context.Context, evt signal.Event) error
}

// Server wires HTTP handlers to the notifier.
type Server struct {
	router    chi.Router
	settings  indexnow.SettingsSource
	submitter Submitter
	events    EventSender
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	settings indexnow.SettingsSource,
	submitter Submitter,
	events EventSender,
	auth config.AuthConfig,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		settings:  settings,
		submitter: submitter,
		events:    events,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(s.keyFileMiddleware)
	r.Use(timeoutMiddleware(requestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/indexnow/key.txt", s.keyFile)

	r.Route("/v1", func(r chi.Router) {
		if auth.Enabled {
			r.Use(apiKeyMiddleware(auth.APIKey))
		}
		r.Post("/submissions", s.submitURLs)
		r.Post("/events", s.sendEvent)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ready",
		"indexnow_enabled": s.settings.IndexNowSettings().Enabled(),
	})
}

// keyFile serves the ownership key. Search engines fetch it to confirm that
// the submitter controls the host.
func (s *Server) keyFile(w http.ResponseWriter, r *http.Request) {
	key := s.settings.IndexNowSettings().Key()
	if key == "" {
		http.NotFound(w, r)
		return
	}
	writeKey(w, key)
}

// keyFileMiddleware answers /{key}.txt before routing.
func (s *Server) keyFileMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := s.settings.IndexNowSettings().Key()
		if key != "" && r.URL.Path == "/"+key+".txt" {
			writeKey(w, key)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeKey(w http.ResponseWriter, key string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(key + "\n"))
}

type submissionRequest struct {
	URLs []string `json:"urls"`
}

type eventRequest struct {
	URL    string `json:"url"`
	Sender string `json:"sender"`
}

func (s *Server) submitURLs(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "urls required")
		return
	}
	if len(req.URLs) > MaxURLsPerRequest {
		writeError(w, http.StatusBadRequest, "too many urls")
		return
	}
	s.respond(w, s.submitter.SubmitURLs(r.Context(), req.URLs))
}

func (s *Server) sendEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url required")
		return
	}
	evt := signal.Event{URL: req.URL}
	if req.Sender != "" {
		evt.Sender = req.Sender
	}
	s.respond(w, s.events.Send(r.Context(), evt))
}

func (s *Server) respond(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	case errors.Is(err, indexnow.ErrConfiguration):
		s.logger.Error("IndexNow misconfigured", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.logger.Error("IndexNow request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

type requestIDKey struct{}

// RequestID returns the id assigned to the request, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("request_id", RequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						zap.Any("error", rec),
						zap.String("request_id", RequestID(r.Context())),
					)
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(key), []byte(expected)) != 1 {
				writeError(w, http.StatusForbidden, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
