package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/784356225/redistrap/internal/server/httpserver/handler"
	"github.com/784356225/redistrap/internal/server/redisserver"
)

// RouterConfig holds configuration for the admin router.
type RouterConfig struct {
	// Events is the archived-event source (nil when the archive is disabled).
	Events handler.EventSource

	// Metrics serves GET /metrics (nil disables the endpoint).
	Metrics http.Handler

	// Stats snapshots the decoy listener state for GET /api/v1/status.
	Stats func() redisserver.Stats

	// Logger for request logging.
	Logger *slog.Logger

	// AllowList is the IP/CIDR allowlist for the admin plane
	// (empty = no restriction).
	AllowList []string
}

// NewRouter creates the admin HTTP handler with its middleware chain.
// Order: Recover -> NetworkACL -> RequestID -> RequestLog -> Handler.
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := handler.New(cfg.Events, cfg.Metrics, cfg.Stats, logger)

	return Chain(h,
		Recover(logger),
		NetworkACL(cfg.AllowList, logger),
		RequestID(),
		RequestLog(logger),
	)
}
