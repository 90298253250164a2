package sink

import (
	"log/slog"
	"time"
)

// Multi fans every event out to a set of sinks. A panicking sink is
// recovered and logged so one misbehaving backend cannot take a session
// down with it.
type Multi struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewMulti combines sinks into one. Nil entries are skipped.
func NewMulti(logger *slog.Logger, sinks ...Sink) *Multi {
	if logger == nil {
		logger = slog.Default()
	}
	out := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Multi{sinks: out, logger: logger}
}

func (m *Multi) each(fn func(Sink)) {
	for _, s := range m.sinks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("telemetry sink panic", "panic", r)
				}
			}()
			fn(s)
		}()
	}
}

func (m *Multi) LogConnection(ip string, port int) {
	m.each(func(s Sink) { s.LogConnection(ip, port) })
}

func (m *Multi) LogAuthAttempt(ip string, port int, username, password string, success bool) {
	m.each(func(s Sink) { s.LogAuthAttempt(ip, port, username, password, success) })
}

func (m *Multi) LogCommand(ip string, port int, command string, args []string) {
	m.each(func(s Sink) { s.LogCommand(ip, port, command, args) })
}

func (m *Multi) LogDisconnect(ip string, port int, duration time.Duration) {
	m.each(func(s Sink) { s.LogDisconnect(ip, port, duration) })
}

func (m *Multi) LogError(ip string, port int, kind, message string) {
	m.each(func(s Sink) { s.LogError(ip, port, kind, message) })
}
