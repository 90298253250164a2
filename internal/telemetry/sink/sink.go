// Package sink defines the telemetry collaborator the protocol engine
// reports attacker activity to.
//
// Sinks receive structured events for every connection, command, credential
// attempt, disconnect and error. Implementations must be safe for
// concurrent use from arbitrarily many sessions, and must never let their
// own failures propagate back into a session: recording is fire-and-forget
// with respect to protocol correctness.
package sink

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Event types, matching the attack-log schema of the deployment tooling.
const (
	TypeConnection  = "connection"
	TypeAuthAttempt = "auth_attempt"
	TypeCommand     = "command"
	TypeDisconnect  = "disconnect"
	TypeError       = "error"
)

// Event is one observed attacker action. Credentials are recorded verbatim:
// capturing what the attacker submits is the purpose of the system.
type Event struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Type       string    `json:"event_type"`
	Service    string    `json:"service"`
	ClientIP   string    `json:"client_ip"`
	ClientPort int       `json:"client_port"`

	// Command events.
	Command     string   `json:"command,omitempty"`
	Args        []string `json:"args,omitempty"`
	Fingerprint string   `json:"fingerprint,omitempty"`

	// Auth events.
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Success  bool   `json:"success"`

	// Disconnect events.
	DurationMS int64 `json:"session_duration_ms,omitempty"`

	// Error events.
	ErrorKind string `json:"error_kind,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Sink receives telemetry events from sessions.
type Sink interface {
	LogConnection(ip string, port int)
	LogAuthAttempt(ip string, port int, username, password string, success bool)
	LogCommand(ip string, port int, command string, args []string)
	LogDisconnect(ip string, port int, duration time.Duration)
	LogError(ip string, port int, kind, message string)
}

// NewEvent builds an event skeleton with a fresh ULID and timestamp.
func NewEvent(eventType, service, ip string, port int) Event {
	return Event{
		ID:         newEventID(),
		Timestamp:  time.Now().UTC(),
		Type:       eventType,
		Service:    service,
		ClientIP:   ip,
		ClientPort: port,
	}
}

func newEventID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return ""
	}
	return id.String()
}

// Discard is a Sink that drops every event. Useful for tests and as the
// fallback when no telemetry is configured.
type Discard struct{}

func (Discard) LogConnection(string, int)                            {}
func (Discard) LogAuthAttempt(string, int, string, string, bool)     {}
func (Discard) LogCommand(string, int, string, []string)             {}
func (Discard) LogDisconnect(string, int, time.Duration)             {}
func (Discard) LogError(string, int, string, string)                 {}
