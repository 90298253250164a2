package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Listen.Host != "0.0.0.0" || cfg.Listen.Port != 6379 {
		t.Errorf("Listen = %s:%d, want 0.0.0.0:6379", cfg.Listen.Host, cfg.Listen.Port)
	}
	if cfg.Decoy.RedisVersion != "6.2.6" {
		t.Errorf("RedisVersion = %q, want 6.2.6", cfg.Decoy.RedisVersion)
	}
	if cfg.Decoy.Password != "" {
		t.Error("default decoy password should be empty")
	}
	if cfg.Limits.MaxConnections != 100 {
		t.Errorf("MaxConnections = %d, want 100", cfg.Limits.MaxConnections)
	}
	if cfg.Archive.Enabled || cfg.Admin.Enabled {
		t.Error("archive and admin plane should default to disabled")
	}

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) error = %v", err)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr bool
	}{
		{"valid default", func(c *ServerConfig) {}, false},
		{"missing host", func(c *ServerConfig) { c.Listen.Host = "" }, true},
		{"port zero", func(c *ServerConfig) { c.Listen.Port = 0 }, true},
		{"port too large", func(c *ServerConfig) { c.Listen.Port = 70000 }, true},
		{"missing version", func(c *ServerConfig) { c.Decoy.RedisVersion = "" }, true},
		{"negative max connections", func(c *ServerConfig) { c.Limits.MaxConnections = -1 }, true},
		{"negative rate limit", func(c *ServerConfig) { c.Limits.RateLimit = -5 }, true},
		{"archive enabled without dir", func(c *ServerConfig) {
			c.Archive.Enabled = true
			c.Archive.Dir = ""
		}, true},
		{"admin enabled without addr", func(c *ServerConfig) {
			c.Admin.Enabled = true
			c.Admin.Addr = ""
		}, true},
		{"zero max connections disables cap", func(c *ServerConfig) { c.Limits.MaxConnections = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Verify(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_CreatesArchiveDir(t *testing.T) {
	cfg := Default()
	cfg.Archive.Enabled = true
	cfg.Archive.Dir = filepath.Join(t.TempDir(), "nested", "events")

	if err := Verify(cfg); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
}

func TestSanitize(t *testing.T) {
	cfg := Default()
	cfg.Decoy.Password = "topsecretlure"

	clean := Sanitize(cfg)

	if clean.Decoy.Password == "topsecretlure" {
		t.Error("Sanitize() should mask the decoy password")
	}
	if !strings.Contains(clean.Decoy.Password, "*") {
		t.Errorf("masked password = %q, want asterisks", clean.Decoy.Password)
	}
	// The original is untouched.
	if cfg.Decoy.Password != "topsecretlure" {
		t.Error("Sanitize() must not mutate its input")
	}
}

func TestSanitize_EmptyPassword(t *testing.T) {
	cfg := Default()
	clean := Sanitize(cfg)
	if clean.Decoy.Password != "" {
		t.Errorf("masked empty password = %q, want empty", clean.Decoy.Password)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ab", "****"},
		{"abcd", "****"},
		{"abcdef", "ab**ef"},
		{"secretpassword", "se**********rd"},
	}
	for _, tt := range tests {
		if got := maskSecret(tt.in); got != tt.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
