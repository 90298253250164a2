// Package metric exposes Prometheus metrics for the honeypot.
//
// Connections, commands, credential attempts and protocol violations are
// counted here and served at /metrics in Prometheus format.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all registered collectors. One instance is shared by every
// session; the prometheus client types are concurrency-safe.
type Metrics struct {
	registry *prometheus.Registry

	ConnectionsTotal     prometheus.Counter
	ConnectionsActive    prometheus.Gauge
	ConnectionsRejected  prometheus.Counter
	CommandsTotal        *prometheus.CounterVec
	CommandsThrottled    prometheus.Counter
	AuthAttemptsTotal    prometheus.Counter
	DecodeErrorsTotal    prometheus.Counter
	TransportErrorsTotal prometheus.Counter
	SessionDuration      prometheus.Histogram
	EventsArchived       prometheus.Counter
	ArchiveErrors        prometheus.Counter
	ArchiveSizeBytes     prometheus.Gauge
}

// New creates and registers all honeypot metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "redistrap_connections_total",
			Help: "Accepted client connections.",
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "redistrap_connections_active",
			Help: "Sessions currently being served.",
		}),
		ConnectionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "redistrap_connections_rejected_total",
			Help: "Connections rejected by the max_connections cap.",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redistrap_commands_total",
			Help: "Decoded commands by (lowercase) command name.",
		}, []string{"command"}),
		CommandsThrottled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "redistrap_commands_throttled_total",
			Help: "Commands refused by the per-IP rate limiter.",
		}),
		AuthAttemptsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "redistrap_auth_attempts_total",
			Help: "AUTH attempts observed. None ever succeeds.",
		}),
		DecodeErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "redistrap_decode_errors_total",
			Help: "Frames rejected by the protocol decoder.",
		}),
		TransportErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "redistrap_transport_errors_total",
			Help: "Socket-level read/write failures.",
		}),
		SessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "redistrap_session_duration_seconds",
			Help:    "Session lifetime from accept to close.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		EventsArchived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "redistrap_events_archived_total",
			Help: "Telemetry events persisted to the archive.",
		}),
		ArchiveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "redistrap_archive_errors_total",
			Help: "Failed archive writes.",
		}),
		ArchiveSizeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "redistrap_archive_size_bytes",
			Help: "On-disk size of the event archive.",
		}),
	}

	reg.MustRegister(
		m.ConnectionsTotal,
		m.ConnectionsActive,
		m.ConnectionsRejected,
		m.CommandsTotal,
		m.CommandsThrottled,
		m.AuthAttemptsTotal,
		m.DecodeErrorsTotal,
		m.TransportErrorsTotal,
		m.SessionDuration,
		m.EventsArchived,
		m.ArchiveErrors,
		m.ArchiveSizeBytes,
	)

	return m
}

// Handler returns the HTTP handler serving this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for additional collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
