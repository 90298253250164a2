package sink

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/784356225/redistrap/pkg/fingerprint"
)

// Appender is the storage side of the archive sink. The event archive in
// internal/storage satisfies it.
type Appender interface {
	Append(key string, value []byte) error
}

// ArchiveSink persists events as JSON records keyed by their ULID, giving
// the operator a time-ordered forensic trail. Storage failures are counted
// and logged locally but never surface to the session that emitted the
// event.
type ArchiveSink struct {
	service string
	store   Appender
	logger  *slog.Logger
}

// NewArchiveSink creates a sink persisting into store.
func NewArchiveSink(service string, store Appender, logger *slog.Logger) *ArchiveSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveSink{service: service, store: store, logger: logger}
}

func (s *ArchiveSink) persist(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		s.logger.Error("archive sink: marshal event", "error", err)
		return
	}
	if err := s.store.Append(e.ID, data); err != nil {
		s.logger.Error("archive sink: append event", "event_id", e.ID, "error", err)
	}
}

func (s *ArchiveSink) LogConnection(ip string, port int) {
	s.persist(NewEvent(TypeConnection, s.service, ip, port))
}

func (s *ArchiveSink) LogAuthAttempt(ip string, port int, username, password string, success bool) {
	e := NewEvent(TypeAuthAttempt, s.service, ip, port)
	e.Username = username
	e.Password = password
	e.Success = success
	s.persist(e)
}

func (s *ArchiveSink) LogCommand(ip string, port int, command string, args []string) {
	e := NewEvent(TypeCommand, s.service, ip, port)
	e.Command = command
	e.Args = args
	e.Fingerprint = fingerprint.Command(command, args)
	s.persist(e)
}

func (s *ArchiveSink) LogDisconnect(ip string, port int, duration time.Duration) {
	e := NewEvent(TypeDisconnect, s.service, ip, port)
	e.DurationMS = duration.Milliseconds()
	s.persist(e)
}

func (s *ArchiveSink) LogError(ip string, port int, kind, message string) {
	e := NewEvent(TypeError, s.service, ip, port)
	e.ErrorKind = kind
	e.Message = message
	s.persist(e)
}
