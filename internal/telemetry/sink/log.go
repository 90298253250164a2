package sink

import (
	"log/slog"
	"strings"
	"time"

	"github.com/784356225/redistrap/pkg/fingerprint"
)

// LogSink writes every event as a structured log line. slog handlers are
// safe for concurrent use, so the sink needs no locking of its own.
type LogSink struct {
	service string
	logger  *slog.Logger
}

// NewLogSink creates a sink logging under the given service name.
func NewLogSink(service string, logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{service: service, logger: logger}
}

func (s *LogSink) LogConnection(ip string, port int) {
	s.logger.Info("new connection",
		"event_type", TypeConnection,
		"service", s.service,
		"client_ip", ip,
		"client_port", port)
}

func (s *LogSink) LogAuthAttempt(ip string, port int, username, password string, success bool) {
	s.logger.Warn("authentication attempt",
		"event_type", TypeAuthAttempt,
		"service", s.service,
		"client_ip", ip,
		"client_port", port,
		"username", username,
		"password", password,
		"success", success)
}

func (s *LogSink) LogCommand(ip string, port int, command string, args []string) {
	s.logger.Info("command received",
		"event_type", TypeCommand,
		"service", s.service,
		"client_ip", ip,
		"client_port", port,
		"command", command,
		"args", strings.Join(args, " "),
		"fingerprint", fingerprint.Command(command, args))
}

func (s *LogSink) LogDisconnect(ip string, port int, duration time.Duration) {
	s.logger.Info("connection lost",
		"event_type", TypeDisconnect,
		"service", s.service,
		"client_ip", ip,
		"client_port", port,
		"session_duration_ms", duration.Milliseconds())
}

func (s *LogSink) LogError(ip string, port int, kind, message string) {
	s.logger.Error("session error",
		"event_type", TypeError,
		"service", s.service,
		"client_ip", ip,
		"client_port", port,
		"error_kind", kind,
		"message", message)
}
