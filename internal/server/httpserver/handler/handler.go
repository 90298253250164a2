// Package handler provides HTTP request handlers for the redistrap
// admin plane.
//
// The handlers are read-only: operators can inspect health, metrics,
// listener state and captured attack events, but nothing here mutates
// the decoy.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/784356225/redistrap/internal/server/redisserver"
)

// EventSource provides access to archived attack events.
type EventSource interface {
	// Recent returns up to n of the most recent events, newest first,
	// each as a raw JSON document.
	Recent(n int) ([][]byte, error)
	// Size returns the on-disk size of the archive in bytes.
	Size() int64
}

// Handler routes admin requests to the appropriate handlers.
type Handler struct {
	events  EventSource // nil when the archive is disabled
	metrics http.Handler
	stats   func() redisserver.Stats
	logger  *slog.Logger
	started time.Time
	mux     *http.ServeMux
}

// New creates a new admin Handler. events may be nil when the archive is
// disabled; stats may be nil before the decoy listener exists.
func New(events EventSource, metrics http.Handler, stats func() redisserver.Stats, logger *slog.Logger) *Handler {
	h := &Handler{
		events:  events,
		metrics: metrics,
		stats:   stats,
		logger:  logger,
		started: time.Now(),
		mux:     http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	if h.metrics != nil {
		h.mux.Handle("GET /metrics", h.metrics)
	}

	h.mux.HandleFunc("GET /api/v1/status", h.handleStatus)
	h.mux.HandleFunc("GET /api/v1/events", h.handleEvents)
}

// writeJSON writes a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("write response", "error", err)
	}
}

// writeError writes a JSON error response.
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
