package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

// handleEvents handles GET /api/v1/events?limit=N.
// It returns the most recent captured events, newest first.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		h.writeError(w, http.StatusNotFound, "event archive is disabled")
		return
	}

	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxEventLimit)
	}

	raw, err := h.events.Recent(limit)
	if err != nil {
		h.logger.Error("read events", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to read events")
		return
	}

	events := make([]json.RawMessage, len(raw))
	for i, b := range raw {
		events[i] = json.RawMessage(b)
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(events),
		"events": events,
	})
}
