package connection

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewClient_BaseURL(t *testing.T) {
	tests := []struct {
		server string
		want   string
	}{
		{"localhost:9642", "http://localhost:9642"},
		{"http://10.0.0.1:9642", "http://10.0.0.1:9642"},
		{"https://trap.internal", "https://trap.internal"},
	}

	for _, tt := range tests {
		t.Run(tt.server, func(t *testing.T) {
			c := NewClient(tt.server, time.Second)
			if c.BaseURL() != tt.want {
				t.Errorf("BaseURL() = %q, want %q", c.BaseURL(), tt.want)
			}
		})
	}
}

func TestClient_Get(t *testing.T) {
	var gotPath, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	resp, err := c.Get(context.Background(), "/api/v1/status")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if gotPath != "/api/v1/status" {
		t.Errorf("request path = %q, want /api/v1/status", gotPath)
	}
	if !strings.HasPrefix(gotAgent, "redistrap-cli/") {
		t.Errorf("User-Agent = %q, want redistrap-cli prefix", gotAgent)
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"ok", http.StatusOK, `{"count":1}`, ""},
		{"api error", http.StatusNotFound, `{"error":"event archive is disabled"}`, "event archive is disabled (status 404)"},
		{"bare error status", http.StatusBadGateway, "upstream exploded", "request failed with status 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			resp, err := NewClient(srv.URL, time.Second).Get(context.Background(), "/")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}

			var target map[string]any
			err = ParseResponse(resp, &target)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ParseResponse() error = %v", err)
				}
				if target["count"] != float64(1) {
					t.Errorf("target = %v, want count 1", target)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("ParseResponse() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseResponse_NilTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ignored":true}`)
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, time.Second).Get(context.Background(), "/")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if err := ParseResponse(resp, nil); err != nil {
		t.Errorf("ParseResponse(nil) error = %v", err)
	}
}
