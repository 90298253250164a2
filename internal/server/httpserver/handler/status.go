package handler

import (
	"net/http"
	"time"

	"github.com/784356225/redistrap/internal/infra/buildinfo"
	"github.com/784356225/redistrap/internal/server/redisserver"
)

// statusResponse is the body of GET /api/v1/status.
type statusResponse struct {
	Version       string             `json:"version"`
	Commit        string             `json:"commit"`
	UptimeSeconds int64              `json:"uptime_seconds"`
	Listener      *redisserver.Stats `json:"listener,omitempty"`
	ArchiveBytes  *int64             `json:"archive_bytes,omitempty"`
}

// handleStatus handles GET /api/v1/status.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	info := buildinfo.Get()
	resp := statusResponse{
		Version:       info.Version,
		Commit:        info.Commit,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	}

	if h.stats != nil {
		stats := h.stats()
		resp.Listener = &stats
	}
	if h.events != nil {
		size := h.events.Size()
		resp.ArchiveBytes = &size
	}

	h.writeJSON(w, http.StatusOK, resp)
}
