// Package httpserver provides the admin HTTP server for redistrap.
//
// The admin plane is separate from the decoy listener: it exposes health
// probes, Prometheus metrics and the captured attack events to operators,
// and is never reachable through the decoy port.
package httpserver

import (
	"context"
	"net/http"
)

// Server represents the admin HTTP server.
type Server struct {
	httpServer *http.Server
}

// New creates a new admin HTTP server.
func New(addr string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: handler,
		},
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
