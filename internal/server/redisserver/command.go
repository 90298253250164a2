package redisserver

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/784356225/redistrap/internal/telemetry/metric"
	"github.com/784356225/redistrap/internal/telemetry/sink"
)

// handlerFunc executes one emulated command for a connected peer. The
// returned bool asks the session to close the connection after the reply
// has been flushed (only QUIT uses it).
type handlerFunc func(h *Handler, p Peer, cmd Command) (Reply, bool)

// commandTable is the static dispatch table, keyed by lowercase command
// name. Built once at init, read-only afterwards.
var commandTable = map[string]handlerFunc{
	"auth":   (*Handler).auth,
	"ping":   (*Handler).ping,
	"info":   (*Handler).info,
	"client": (*Handler).client,
	"select": (*Handler).selectDB,
	"quit":   (*Handler).quit,
}

// Peer identifies the remote end of a session for telemetry.
type Peer struct {
	IP        string
	Port      int
	SessionID string
}

// DecoyIdentity is the static identity the honeypot presents to clients.
type DecoyIdentity struct {
	// Version is the emulated redis_version (e.g. "6.2.6").
	Version string
	// Mode is the emulated redis_mode (e.g. "standalone").
	Mode string
	// Port is the advertised tcp_port in INFO output.
	Port int
	// Password is the decoy requirepass value. Empty means the honeypot
	// claims no password is set; non-empty means every AUTH attempt is
	// rejected as an invalid password. No value ever authenticates.
	Password string
	// ResponseDelay is an optional artificial delay before each reply.
	ResponseDelay time.Duration
}

// Handler dispatches decoded commands against the emulated command set.
// It is shared by all sessions and holds no per-connection state.
type Handler struct {
	identity DecoyIdentity
	sink     sink.Sink
	metrics  *metric.Metrics
	logger   *slog.Logger
}

// NewHandler creates the shared command handler.
func NewHandler(identity DecoyIdentity, tel sink.Sink, m *metric.Metrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if tel == nil {
		tel = sink.Discard{}
	}
	return &Handler{
		identity: identity,
		sink:     tel,
		metrics:  m,
		logger:   logger,
	}
}

// Dispatch looks up and executes cmd. Every syntactically valid command
// produces a protocol-correct Reply; unknown names fall through to the
// deliberately chatty unknown-command error, which both looks authentic to
// the client and flags the probe for the operator.
func (h *Handler) Dispatch(p Peer, cmd Command) (Reply, bool) {
	if h.metrics != nil {
		h.metrics.CommandsTotal.WithLabelValues(cmd.Name).Inc()
	}
	h.sink.LogCommand(p.IP, p.Port, cmd.Name, cmd.Args)

	if h.identity.ResponseDelay > 0 {
		time.Sleep(h.identity.ResponseDelay)
	}

	fn, ok := commandTable[cmd.Name]
	if !ok {
		return h.unknown(p, cmd), false
	}
	return fn(h, p, cmd)
}

// auth records every credential pair and never authenticates. Arity 1 is
// password-only, arity 2 is username+password, anything else is an arity
// error. The reply depends only on whether a decoy password is configured,
// never on the submitted value.
func (h *Handler) auth(p Peer, cmd Command) (Reply, bool) {
	var username, password string
	switch len(cmd.Args) {
	case 1:
		password = cmd.Args[0]
	case 2:
		username, password = cmd.Args[0], cmd.Args[1]
	default:
		return errWrongArity("auth"), false
	}

	if h.metrics != nil {
		h.metrics.AuthAttemptsTotal.Inc()
	}
	h.sink.LogAuthAttempt(p.IP, p.Port, username, password, false)

	if h.identity.Password == "" {
		return ErrorReply{Kind: "ERR", Message: "Client sent AUTH, but no password is set"}, false
	}
	return ErrorReply{Kind: "ERR", Message: "invalid password"}, false
}

func (h *Handler) ping(_ Peer, cmd Command) (Reply, bool) {
	if len(cmd.Args) == 0 {
		return SimpleString("PONG"), false
	}
	return BulkString(cmd.Args[0]), false
}

// info returns a canned multi-section status block. Version and port come
// from the decoy identity; everything else is fixed and never reflects the
// host the honeypot runs on.
func (h *Handler) info(_ Peer, _ Command) (Reply, bool) {
	sections := []string{
		"# Server",
		"redis_version:" + h.identity.Version,
		"redis_git_sha1:00000000",
		"redis_git_dirty:0",
		"redis_build_id:0",
		"redis_mode:" + h.identity.Mode,
		"os:Linux 4.15.0-1043-aws x86_64",
		"arch_bits:64",
		"multiplexing_api:epoll",
		"atomicvar_api:atomic-builtin",
		"gcc_version:7.5.0",
		"process_id:1",
		"run_id:random_run_id",
		"tcp_port:" + strconv.Itoa(h.identity.Port),
		"uptime_in_seconds:3600",
		"uptime_in_days:0",
		"hz:10",
		"configured_hz:10",
		"lru_clock:123456",
		"executable:/usr/local/bin/redis-server",
		"config_file:",
		"",
		"# Clients",
		"connected_clients:1",
		"client_recent_max_input_buffer:2",
		"client_recent_max_output_buffer:0",
		"blocked_clients:0",
		"",
		"# Memory",
		"used_memory:1048576",
		"used_memory_human:1.00M",
		"used_memory_rss:2097152",
		"used_memory_rss_human:2.00M",
		"used_memory_peak:1048576",
		"used_memory_peak_human:1.00M",
		"",
		"# Stats",
		"total_connections_received:1",
		"total_commands_processed:1",
		"instantaneous_ops_per_sec:0",
		"total_net_input_bytes:14",
		"total_net_output_bytes:0",
		"instantaneous_input_kbps:0.00",
		"instantaneous_output_kbps:0.00",
		"rejected_connections:0",
		"sync_full:0",
		"sync_partial_ok:0",
		"sync_partial_err:0",
		"expired_keys:0",
		"evicted_keys:0",
		"keyspace_hits:0",
		"keyspace_misses:0",
		"pubsub_channels:0",
		"pubsub_patterns:0",
		"latest_fork_usec:0",
		"migrate_cached_sockets:0",
		"slave_expires_tracked_keys:0",
		"active_defrag_hits:0",
		"active_defrag_misses:0",
		"active_defrag_key_hits:0",
		"active_defrag_key_misses:0",
	}
	return BulkString(strings.Join(sections, "\r\n")), false
}

// client answers CLIENT subcommands non-committally. SETNAME with an even
// number of key/value tokens is captured for forensics; a malformed SETNAME
// gets an arity error. Everything else is acknowledged with OK so probing
// tools see a cooperative server.
func (h *Handler) client(p Peer, cmd Command) (Reply, bool) {
	if len(cmd.Args) == 0 {
		return SimpleString("OK"), false
	}
	if strings.ToLower(cmd.Args[0]) != "setname" {
		return SimpleString("OK"), false
	}

	kv := cmd.Args[1:]
	if len(kv)%2 != 0 {
		return errWrongArity("client"), false
	}
	attrs := make([]any, 0, len(kv)+6)
	attrs = append(attrs, "client_ip", p.IP, "client_port", p.Port, "session_id", p.SessionID)
	for i := 0; i < len(kv); i += 2 {
		attrs = append(attrs, kv[i], kv[i+1])
	}
	h.logger.Info("client setname", attrs...)
	return SimpleString("OK"), false
}

func (h *Handler) selectDB(_ Peer, cmd Command) (Reply, bool) {
	if len(cmd.Args) != 1 {
		return errWrongArity("select"), false
	}
	idx, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		return ErrorReply{Kind: "ERR", Message: "value is not an integer or out of range"}, false
	}
	if idx < 0 || idx > 15 {
		return ErrorReply{Kind: "ERR", Message: "DB index is out of range"}, false
	}
	return SimpleString("OK"), false
}

// quit acknowledges and asks the session to close after the reply drains.
// The handler itself never touches the socket.
func (h *Handler) quit(_ Peer, _ Command) (Reply, bool) {
	return SimpleString("OK"), true
}

func (h *Handler) unknown(_ Peer, cmd Command) Reply {
	parts := make([]string, 0, 3)
	for i, a := range cmd.Args {
		if i == 3 {
			break
		}
		parts = append(parts, "'"+a+"'")
	}
	return ErrorReply{
		Kind:    "ERR",
		Message: "unknown command '" + cmd.Name + "', with args beginning with: " + strings.Join(parts, ", "),
	}
}
