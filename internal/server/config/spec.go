// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for redistrap.
type ServerConfig struct {
	Listen  ListenSection  `koanf:"listen"`
	Decoy   DecoySection   `koanf:"decoy"`
	Limits  LimitsSection  `koanf:"limits"`
	Archive ArchiveSection `koanf:"archive"`
	Admin   AdminSection   `koanf:"admin"`
	Log     LogSection     `koanf:"log"`
}

// ListenSection configures the decoy listener.
type ListenSection struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// DecoySection configures the identity the honeypot impersonates.
type DecoySection struct {
	// Name tags telemetry events (the "service" field).
	Name string `koanf:"name"`
	// RedisVersion is the redis_version advertised by INFO.
	RedisVersion string `koanf:"redis_version"`
	// RedisMode is the redis_mode advertised by INFO.
	RedisMode string `koanf:"redis_mode"`
	// Password is the decoy requirepass. Empty makes AUTH answer that no
	// password is set; non-empty makes every attempt "invalid password".
	// It is a lure, never a credential: nothing ever authenticates.
	Password string `koanf:"password"`
	// ResponseDelay delays each reply to mimic a loaded server.
	ResponseDelay time.Duration `koanf:"response_delay"`
}

// LimitsSection bounds per-client resource use.
type LimitsSection struct {
	MaxConnections int           `koanf:"max_connections"`
	RateLimit      int           `koanf:"rate_limit"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	IdleTimeout    time.Duration `koanf:"idle_timeout"`
}

// ArchiveSection configures the on-disk attack-event archive.
type ArchiveSection struct {
	Enabled   bool          `koanf:"enabled"`
	Dir       string        `koanf:"dir"`
	Retention time.Duration `koanf:"retention"`
}

// AdminSection configures the operator-facing HTTP plane: health probes,
// Prometheus metrics and the captured-event API. It is bound separately
// from the decoy listener and is never exposed to attackers.
type AdminSection struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
	// AllowList restricts admin access to these IPs or CIDRs.
	// Empty admits everyone.
	AllowList []string `koanf:"allow_list"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
