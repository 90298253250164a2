package command

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/784356225/redistrap/internal/telemetry/sink"
)

func TestApp(t *testing.T) {
	app := App()

	if app.Name != "redistrap-cli" {
		t.Errorf("Name = %q, want redistrap-cli", app.Name)
	}
	if len(app.Commands) != 2 {
		t.Fatalf("commands = %d, want 2", len(app.Commands))
	}

	names := map[string]bool{}
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}
	for _, want := range []string{"status", "events"} {
		if !names[want] {
			t.Errorf("command %q not registered", want)
		}
	}
}

func TestEventDetail(t *testing.T) {
	tests := []struct {
		name  string
		event sink.Event
		want  string
	}{
		{
			"command with args",
			sink.Event{Type: sink.TypeCommand, Command: "set", Args: []string{"k", "v"}},
			"set k v",
		},
		{
			"command without args",
			sink.Event{Type: sink.TypeCommand, Command: "ping"},
			"ping",
		},
		{
			"auth with username",
			sink.Event{Type: sink.TypeAuthAttempt, Username: "admin", Password: "hunter2"},
			"user=admin password=hunter2",
		},
		{
			"auth password only",
			sink.Event{Type: sink.TypeAuthAttempt, Password: "hunter2"},
			"password=hunter2",
		},
		{
			"disconnect",
			sink.Event{Type: sink.TypeDisconnect, DurationMS: 1500},
			"duration=1500ms",
		},
		{
			"error",
			sink.Event{Type: sink.TypeError, ErrorKind: "protocol_error", Message: "invalid multibulk length"},
			"protocol_error: invalid multibulk length",
		},
		{
			"connection has no detail",
			sink.Event{Type: sink.TypeConnection},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eventDetail(tt.event); got != tt.want {
				t.Errorf("eventDetail() = %q, want %q", got, tt.want)
			}
		})
	}
}

// captureStdout runs fn with os.Stdout redirected to a pipe and
// returns everything written to it.
func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fnErr := fn()
	w.Close()
	out, _ := io.ReadAll(r)

	if fnErr != nil {
		t.Fatalf("command failed: %v\noutput:\n%s", fnErr, out)
	}
	return string(out)
}

func TestEventsCommand_Run(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		fmt.Fprint(w, `{"count":2,"events":[
			{"type":"command","client_ip":"203.0.113.7","client_port":54321,"command":"info","timestamp":"2026-08-27T10:00:00Z"},
			{"type":"auth_attempt","client_ip":"203.0.113.7","client_port":54321,"password":"hunter2","timestamp":"2026-08-27T10:00:01Z"}
		]}`)
	}))
	defer srv.Close()

	out := captureStdout(t, func() error {
		return App().Run([]string{"redistrap-cli", "--server", srv.URL, "events", "--limit", "10"})
	})

	if gotPath != "/api/v1/events?limit=10" {
		t.Errorf("request path = %q, want /api/v1/events?limit=10", gotPath)
	}
	if !strings.Contains(out, "info") || !strings.Contains(out, "password=hunter2") {
		t.Errorf("output missing event rows:\n%s", out)
	}
	if !strings.Contains(out, "203.0.113.7:54321") {
		t.Errorf("output missing client address:\n%s", out)
	}
}

func TestEventsCommand_TypeFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count":2,"events":[
			{"type":"command","client_ip":"1.2.3.4","client_port":1,"command":"ping","timestamp":"2026-08-27T10:00:00Z"},
			{"type":"connection","client_ip":"1.2.3.4","client_port":1,"timestamp":"2026-08-27T10:00:01Z"}
		]}`)
	}))
	defer srv.Close()

	out := captureStdout(t, func() error {
		return App().Run([]string{"redistrap-cli", "--server", srv.URL, "events", "--type", "connection"})
	})

	if strings.Contains(out, "ping") {
		t.Errorf("filtered output still contains command event:\n%s", out)
	}
	if !strings.Contains(out, "connection") {
		t.Errorf("output missing connection event:\n%s", out)
	}
}

func TestStatusCommand_Run(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/status" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"version":"1.2.3","commit":"abc1234","uptime_seconds":90,
			"listener":{"active_sessions":2,"tracked_clients":5},"archive_bytes":2048}`)
	}))
	defer srv.Close()

	out := captureStdout(t, func() error {
		return App().Run([]string{"redistrap-cli", "--server", srv.URL, "status"})
	})

	for _, want := range []string{"1.2.3", "abc1234", "2", "5"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEventsCommand_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"event archive is disabled"}`)
	}))
	defer srv.Close()

	err := App().Run([]string{"redistrap-cli", "--server", srv.URL, "events"})
	if err == nil || !strings.Contains(err.Error(), "event archive is disabled") {
		t.Errorf("Run() error = %v, want archive-disabled message", err)
	}
}
