package redisserver

import (
	"strings"
	"sync"
	"testing"
	"time"
)

// recordingSink captures telemetry events for assertions.
type recordingSink struct {
	mu          sync.Mutex
	connections []string
	auths       []authRecord
	commands    []commandRecord
	disconnects []string
	errors      []errorRecord
}

type authRecord struct {
	username, password string
	success            bool
}

type commandRecord struct {
	command string
	args    []string
}

type errorRecord struct {
	kind, message string
}

func (s *recordingSink) LogConnection(ip string, port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections = append(s.connections, ip)
}

func (s *recordingSink) LogAuthAttempt(ip string, port int, username, password string, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auths = append(s.auths, authRecord{username, password, success})
}

func (s *recordingSink) LogCommand(ip string, port int, command string, args []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, commandRecord{command, args})
}

func (s *recordingSink) LogDisconnect(ip string, port int, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnects = append(s.disconnects, ip)
}

func (s *recordingSink) LogError(ip string, port int, kind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, errorRecord{kind, message})
}

func (s *recordingSink) disconnectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.disconnects)
}

func testPeer() Peer {
	return Peer{IP: "203.0.113.7", Port: 54321, SessionID: "test-session"}
}

func newTestHandler(identity DecoyIdentity) (*Handler, *recordingSink) {
	rec := &recordingSink{}
	return NewHandler(identity, rec, nil, nil), rec
}

func dispatch(t *testing.T, h *Handler, name string, args ...string) (Reply, bool) {
	t.Helper()
	return h.Dispatch(testPeer(), Command{Name: name, Args: args})
}

func TestHandler_Ping(t *testing.T) {
	h, _ := newTestHandler(DecoyIdentity{Version: "6.2.6"})

	reply, closeAfter := dispatch(t, h, "ping")
	if got := string(EncodeReply(reply)); got != "+PONG\r\n" {
		t.Errorf("PING = %q, want +PONG", got)
	}
	if closeAfter {
		t.Error("PING should not close the connection")
	}

	reply, _ = dispatch(t, h, "ping", "hello")
	if got := string(EncodeReply(reply)); got != "$5\r\nhello\r\n" {
		t.Errorf("PING hello = %q, want echo", got)
	}
}

func TestHandler_Auth_NoPasswordSet(t *testing.T) {
	h, rec := newTestHandler(DecoyIdentity{})

	reply, closeAfter := dispatch(t, h, "auth", "hunter2")
	want := "-ERR Client sent AUTH, but no password is set\r\n"
	if got := string(EncodeReply(reply)); got != want {
		t.Errorf("AUTH = %q, want %q", got, want)
	}
	if closeAfter {
		t.Error("AUTH should not close the connection")
	}

	if len(rec.auths) != 1 {
		t.Fatalf("auth attempts recorded = %d, want 1", len(rec.auths))
	}
	if rec.auths[0].password != "hunter2" || rec.auths[0].username != "" {
		t.Errorf("recorded auth = %+v, want password hunter2", rec.auths[0])
	}
	if rec.auths[0].success {
		t.Error("auth attempt must never be recorded as successful")
	}
}

func TestHandler_Auth_WithDecoyPassword(t *testing.T) {
	h, rec := newTestHandler(DecoyIdentity{Password: "lure"})

	// Even the exact decoy password is rejected.
	reply, _ := dispatch(t, h, "auth", "lure")
	want := "-ERR invalid password\r\n"
	if got := string(EncodeReply(reply)); got != want {
		t.Errorf("AUTH lure = %q, want %q", got, want)
	}

	reply, _ = dispatch(t, h, "auth", "wrong")
	if got := string(EncodeReply(reply)); got != want {
		t.Errorf("AUTH wrong = %q, want %q", got, want)
	}

	if len(rec.auths) != 2 {
		t.Errorf("auth attempts recorded = %d, want 2", len(rec.auths))
	}
}

func TestHandler_Auth_UsernamePassword(t *testing.T) {
	h, rec := newTestHandler(DecoyIdentity{})

	dispatch(t, h, "auth", "admin", "secret")

	if len(rec.auths) != 1 {
		t.Fatalf("auth attempts recorded = %d, want 1", len(rec.auths))
	}
	if rec.auths[0].username != "admin" || rec.auths[0].password != "secret" {
		t.Errorf("recorded auth = %+v, want admin/secret", rec.auths[0])
	}
}

func TestHandler_Auth_WrongArity(t *testing.T) {
	h, rec := newTestHandler(DecoyIdentity{})

	reply, _ := dispatch(t, h, "auth")
	want := "-ERR wrong number of arguments for 'auth' command\r\n"
	if got := string(EncodeReply(reply)); got != want {
		t.Errorf("AUTH = %q, want arity error", got)
	}

	reply, _ = dispatch(t, h, "auth", "a", "b", "c")
	if got := string(EncodeReply(reply)); got != want {
		t.Errorf("AUTH a b c = %q, want arity error", got)
	}

	// Arity errors are dispatch noise, not credential attempts.
	if len(rec.auths) != 0 {
		t.Errorf("auth attempts recorded = %d, want 0", len(rec.auths))
	}
}

func TestHandler_Info(t *testing.T) {
	h, _ := newTestHandler(DecoyIdentity{Version: "7.0.5", Mode: "standalone", Port: 6380})

	reply, _ := dispatch(t, h, "info")
	raw := string(EncodeReply(reply))

	if !strings.HasPrefix(raw, "$") {
		t.Fatalf("INFO reply should be a bulk string, got %q", raw[:1])
	}
	for _, want := range []string{
		"# Server",
		"redis_version:7.0.5",
		"redis_mode:standalone",
		"tcp_port:6380",
		"# Clients",
		"# Memory",
		"# Stats",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("INFO missing %q", want)
		}
	}
	if strings.Contains(raw, "# Keyspace") {
		t.Error("INFO must not advertise a keyspace")
	}
}

func TestHandler_Client(t *testing.T) {
	h, _ := newTestHandler(DecoyIdentity{})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no args", nil, "+OK\r\n"},
		{"getname", []string{"getname"}, "+OK\r\n"},
		{"setname pair", []string{"setname", "lib-name", "redis-py"}, "+OK\r\n"},
		{"setname empty", []string{"setname"}, "+OK\r\n"},
		{"setname odd tokens", []string{"setname", "only-key"}, "-ERR wrong number of arguments for 'client' command\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, _ := dispatch(t, h, "client", tt.args...)
			if got := string(EncodeReply(reply)); got != tt.want {
				t.Errorf("CLIENT %v = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestHandler_Select(t *testing.T) {
	h, _ := newTestHandler(DecoyIdentity{})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"db 0", []string{"0"}, "+OK\r\n"},
		{"db 15", []string{"15"}, "+OK\r\n"},
		{"db 16", []string{"16"}, "-ERR DB index is out of range\r\n"},
		{"negative", []string{"-1"}, "-ERR DB index is out of range\r\n"},
		{"not a number", []string{"abc"}, "-ERR value is not an integer or out of range\r\n"},
		{"no args", nil, "-ERR wrong number of arguments for 'select' command\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, _ := dispatch(t, h, "select", tt.args...)
			if got := string(EncodeReply(reply)); got != tt.want {
				t.Errorf("SELECT %v = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestHandler_Quit(t *testing.T) {
	h, _ := newTestHandler(DecoyIdentity{})

	reply, closeAfter := dispatch(t, h, "quit")
	if got := string(EncodeReply(reply)); got != "+OK\r\n" {
		t.Errorf("QUIT = %q, want +OK", got)
	}
	if !closeAfter {
		t.Error("QUIT must close the connection after the reply")
	}
}

func TestHandler_Unknown(t *testing.T) {
	h, rec := newTestHandler(DecoyIdentity{})

	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{
			"no args",
			Command{Name: "foobar"},
			"-ERR unknown command 'foobar', with args beginning with: \r\n",
		},
		{
			"few args",
			Command{Name: "eval", Args: []string{"a", "b"}},
			"-ERR unknown command 'eval', with args beginning with: 'a', 'b'\r\n",
		},
		{
			"args truncated to three",
			Command{Name: "mset", Args: []string{"a", "b", "c", "d", "e"}},
			"-ERR unknown command 'mset', with args beginning with: 'a', 'b', 'c'\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, closeAfter := h.Dispatch(testPeer(), tt.cmd)
			if got := string(EncodeReply(reply)); got != tt.want {
				t.Errorf("Dispatch(%+v) = %q, want %q", tt.cmd, got, tt.want)
			}
			if closeAfter {
				t.Error("unknown commands must not close the connection")
			}
		})
	}

	// Every command, known or not, is recorded.
	if len(rec.commands) != len(tests) {
		t.Errorf("commands recorded = %d, want %d", len(rec.commands), len(tests))
	}
}

func TestHandler_ResponseDelay(t *testing.T) {
	delay := 30 * time.Millisecond
	h, _ := newTestHandler(DecoyIdentity{ResponseDelay: delay})

	start := time.Now()
	dispatch(t, h, "ping")
	if elapsed := time.Since(start); elapsed < delay {
		t.Errorf("Dispatch returned after %v, want at least %v", elapsed, delay)
	}
}
