package redisserver

import (
	"bufio"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/784356225/redistrap/internal/telemetry/metric"
	"github.com/784356225/redistrap/internal/telemetry/sink"
)

// Config holds the listener configuration.
type Config struct {
	// Address is the host:port the decoy binds to.
	Address string
	// Identity is the static server identity presented to clients.
	Identity DecoyIdentity
	// MaxConnections caps concurrently served sessions. Sockets accepted
	// above the cap are closed immediately. 0 disables the cap.
	MaxConnections int
	// RateLimit is the maximum number of commands per second per IP.
	// 0 disables rate limiting.
	RateLimit int
	// ReadTimeout is the timeout for reading one command once its first
	// byte has arrived (slowloris protection).
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for draining one reply.
	WriteTimeout time.Duration
	// IdleTimeout is how long a connection may sit between commands.
	IdleTimeout time.Duration
}

// DefaultConfig returns the default listener configuration.
func DefaultConfig() *Config {
	return &Config{
		Address: "0.0.0.0:6379",
		Identity: DecoyIdentity{
			Version: "6.2.6",
			Mode:    "standalone",
			Port:    6379,
		},
		MaxConnections: 100,
		RateLimit:      0,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    5 * time.Minute,
	}
}

// Server accepts connections and runs one session goroutine per client.
// Sessions share only the read-only handler table, the telemetry sink and
// the metrics registry; a hostile connection can terminate itself but
// never the listener or its siblings.
type Server struct {
	cfg      *Config
	handler  *Handler
	sink     sink.Sink
	metrics  *metric.Metrics
	logger   *slog.Logger
	limiters *limiterRegistry

	ln      net.Listener
	running atomic.Bool
	active  atomic.Int64
	wg      sync.WaitGroup
}

// New creates a decoy server. A nil cfg uses DefaultConfig; nil telemetry
// collaborators degrade to no-ops so the protocol engine stays testable in
// isolation.
func New(cfg *Config, tel sink.Sink, m *metric.Metrics, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if tel == nil {
		tel = sink.Discard{}
	}

	return &Server{
		cfg:      cfg,
		handler:  NewHandler(cfg.Identity, tel, m, logger),
		sink:     tel,
		metrics:  m,
		logger:   logger,
		limiters: newLimiterRegistry(cfg.RateLimit),
	}
}

// Start binds the listener and serves until Shutdown or ctx cancellation.
// It returns once the listener is bound; accepting happens on a goroutine.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("redisserver: listen %s: %w", s.cfg.Address, err)
	}
	s.ln = ln
	s.running.Store(true)

	s.logger.Info("decoy listening", "address", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil && s.running.Load() {
			s.logger.Error("accept loop error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stats is a point-in-time snapshot of listener state.
type Stats struct {
	// ActiveSessions is the number of connections currently served.
	ActiveSessions int64 `json:"active_sessions"`
	// TrackedClients is the number of client IPs holding a rate limiter.
	TrackedClients int `json:"tracked_clients"`
}

// Stats returns a snapshot of listener state.
func (s *Server) Stats() Stats {
	return Stats{
		ActiveSessions: s.active.Load(),
		TrackedClients: s.limiters.tracked(),
	}
}

// Shutdown stops accepting new connections and waits for in-flight
// sessions to finish, up to ctx's deadline. Sessions already in progress
// are not forcibly terminated.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error
	if s.ln != nil {
		if err := s.ln.Close(); err != nil {
			firstErr = err
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		if s.cfg.MaxConnections > 0 && s.active.Load() >= int64(s.cfg.MaxConnections) {
			ip, port := splitHostPort(c.RemoteAddr())
			s.logger.Warn("connection rejected, limit reached",
				"remote", c.RemoteAddr().String(),
				"max_connections", s.cfg.MaxConnections)
			s.sink.LogError(ip, port, "too_many_connections",
				"connection rejected: max_connections reached")
			if s.metrics != nil {
				s.metrics.ConnectionsRejected.Inc()
			}
			_ = c.Close()
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, c)
		}()
	}
}

// session is the per-connection state. It owns the socket exclusively and
// never outlives it.
type session struct {
	id      string
	conn    net.Conn
	br      *bufio.Reader
	bw      *bufio.Writer
	peer    Peer
	started time.Time
}

func newSessionID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return ""
	}
	return id.String()
}

func splitHostPort(addr net.Addr) (string, int) {
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String(), 0
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}

func (s *Server) serveConn(ctx context.Context, c net.Conn) {
	ip, port := splitHostPort(c.RemoteAddr())
	sess := &session{
		id:      newSessionID(),
		conn:    c,
		br:      bufio.NewReaderSize(c, 1024),
		bw:      bufio.NewWriter(c),
		started: time.Now(),
	}
	sess.peer = Peer{IP: ip, Port: port, SessionID: sess.id}

	s.active.Add(1)
	if s.metrics != nil {
		s.metrics.ConnectionsTotal.Inc()
		s.metrics.ConnectionsActive.Inc()
	}
	s.sink.LogConnection(ip, port)
	s.logger.Info("client connected", "client_ip", ip, "client_port", port, "session_id", sess.id)

	// The session boundary: a panicking handler or codec bug terminates
	// this session only. Exactly one disconnect event fires per session.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("session panic",
				"client_ip", ip, "client_port", port, "session_id", sess.id, "panic", r)
			s.sink.LogError(ip, port, "session_panic", fmt.Sprint(r))
		}
		_ = c.Close()
		duration := time.Since(sess.started)
		s.active.Add(-1)
		if s.metrics != nil {
			s.metrics.ConnectionsActive.Dec()
			s.metrics.SessionDuration.Observe(duration.Seconds())
		}
		s.sink.LogDisconnect(ip, port, duration)
		s.logger.Info("client disconnected",
			"client_ip", ip, "client_port", port, "session_id", sess.id,
			"duration", duration.String())
	}()

	s.sessionLoop(ctx, sess)
}

// sessionLoop runs read -> decode -> dispatch -> encode -> flush until the
// peer goes away, the stream becomes unrecoverable, or shutdown is asked.
// Each reply is fully drained before the next read, so a session never
// queues more than one in-flight response.
func (s *Server) sessionLoop(ctx context.Context, sess *session) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Idle deadline while waiting for the first byte; connections may
		// legitimately sit quiet between probes.
		if err := sess.conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
			return
		}
		if _, err := sess.br.Peek(1); err != nil {
			s.reportReadFailure(sess, err)
			return
		}

		// First byte arrived: tighten to the per-command read deadline.
		if err := sess.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			return
		}

		cmd, err := ReadCommand(sess.br)
		if err != nil {
			if s.reportDecodeFailure(sess, err) {
				return
			}
			continue
		}

		if cmd.Empty() {
			// Blank inline line or null array: answer with a generic
			// protocol error and stay aligned for the next command.
			if !s.reply(sess, ErrorReply{Kind: "ERR", Message: "Protocol error: empty command"}) {
				return
			}
			continue
		}

		if !s.limiters.allow(sess.peer.IP) {
			if s.metrics != nil {
				s.metrics.CommandsThrottled.Inc()
			}
			if !s.reply(sess, ErrorReply{Kind: "ERR", Message: "max number of commands exceeded"}) {
				return
			}
			continue
		}

		reply, closeAfter := s.handler.Dispatch(sess.peer, cmd)
		if !s.reply(sess, reply) {
			return
		}
		if closeAfter {
			return
		}
	}
}

// reply encodes r and waits for the outbound buffer to drain. It returns
// false when the session must end (transport failure while writing).
func (s *Server) reply(sess *session, r Reply) bool {
	if err := sess.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		return false
	}
	if err := WriteReply(sess.bw, r); err != nil {
		s.sink.LogError(sess.peer.IP, sess.peer.Port, "transport", err.Error())
		return false
	}
	if err := sess.bw.Flush(); err != nil {
		s.sink.LogError(sess.peer.IP, sess.peer.Port, "transport", err.Error())
		return false
	}
	return true
}

// reportReadFailure classifies the error that ended the wait for a command.
// Clean EOF is the normal "connection lost" path; anything else is a
// transport error event.
func (s *Server) reportReadFailure(sess *session, err error) {
	if errors.Is(err, io.EOF) {
		return
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		s.logger.Debug("connection timed out",
			"client_ip", sess.peer.IP, "client_port", sess.peer.Port, "session_id", sess.id)
		return
	}
	if s.metrics != nil {
		s.metrics.TransportErrorsTotal.Inc()
	}
	s.sink.LogError(sess.peer.IP, sess.peer.Port, "transport", err.Error())
}

// reportDecodeFailure answers a malformed frame and reports whether the
// session must close. Limit violations and multi-bulk framing errors leave
// the byte stream unaligned, so the connection is closed after the error
// reply; a mid-frame EOF closes silently.
func (s *Server) reportDecodeFailure(sess *session, err error) (closed bool) {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	switch {
	case errors.Is(err, ErrLimitExceeded):
		if s.metrics != nil {
			s.metrics.DecodeErrorsTotal.Inc()
		}
		s.sink.LogError(sess.peer.IP, sess.peer.Port, "protocol", err.Error())
		s.logger.Warn("protocol limit exceeded",
			"client_ip", sess.peer.IP, "client_port", sess.peer.Port,
			"session_id", sess.id, "error", err)
		s.reply(sess, ErrorReply{Kind: "ERR", Message: "Protocol error: limit exceeded"})
		return true
	case errors.Is(err, ErrProtocol):
		if s.metrics != nil {
			s.metrics.DecodeErrorsTotal.Inc()
		}
		s.sink.LogError(sess.peer.IP, sess.peer.Port, "protocol", err.Error())
		msg := "Protocol error: invalid multibulk length"
		if errors.Is(err, ErrInlineProtocol) {
			// The wording the real server uses for a bad inline line.
			msg = "Protocol error: unbalanced quotes in request"
		}
		s.reply(sess, ErrorReply{Kind: "ERR", Message: msg})
		return true
	default:
		if s.metrics != nil {
			s.metrics.TransportErrorsTotal.Inc()
		}
		s.sink.LogError(sess.peer.IP, sess.peer.Port, "transport", err.Error())
		return true
	}
}
