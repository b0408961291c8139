package server

import (
	"bufio"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mundschenk-at/squeezebox-ir-events/internal/api"
	"github.com/mundschenk-at/squeezebox-ir-events/internal/audit"
	"github.com/mundschenk-at/squeezebox-ir-events/internal/status"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack forwards to the underlying writer so websocket upgrades still work
// behind the logging wrapper.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return hijacker.Hijack()
}

// requestLogger logs all incoming HTTP requests through the daemon logger.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			logger.Printf("API: %s %s %d %s", r.Method, r.URL.Path, wrapped.status, time.Since(start).Round(time.Millisecond))
		})
	}
}

// NewHandler builds the read-only status API. auditService may be nil when
// the audit trail is disabled; the events routes are then not registered.
func NewHandler(tracker *status.Tracker, broadcaster *status.Broadcaster, auditService *audit.Service, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.Default()
	}

	router := chi.NewRouter()
	router.Use(middleware.StripSlashes)
	router.Use(requestLogger(logger))
	router.Use(api.RequestIDMiddleware)
	router.Use(api.Recoverer(logger))

	registerHealthRoutes(router)
	registerStatusRoutes(router, tracker)
	router.Get("/v1/stream", streamHandler(broadcaster, logger))

	if auditService != nil {
		audit.RegisterRoutes(router, auditService)
	}

	return router
}

func registerHealthRoutes(router chi.Router) {
	router.Method(http.MethodGet, "/v1/health", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		response := map[string]any{
			"status":    "healthy",
			"service":   "sb-ir-events",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		return api.WriteJSON(w, http.StatusOK, response)
	}))
}

func registerStatusRoutes(router chi.Router, tracker *status.Tracker) {
	router.Method(http.MethodGet, "/v1/status", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		return api.WriteResource(w, http.StatusOK, tracker.Snapshot())
	}))
}
