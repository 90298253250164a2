// Package config defines the server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultHost = "0.0.0.0"
	DefaultPort = 6379

	DefaultName         = "redistrap"
	DefaultRedisVersion = "6.2.6"
	DefaultRedisMode    = "standalone"

	DefaultMaxConnections = 100
	DefaultReadTimeout    = 30 * time.Second
	DefaultWriteTimeout   = 30 * time.Second
	DefaultIdleTimeout    = 5 * time.Minute

	DefaultArchiveDir       = "/var/lib/redistrap/events"
	DefaultArchiveRetention = 30 * 24 * time.Hour

	DefaultAdminAddr = "127.0.0.1:9642"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Listen: ListenSection{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Decoy: DecoySection{
			Name:         DefaultName,
			RedisVersion: DefaultRedisVersion,
			RedisMode:    DefaultRedisMode,
		},
		Limits: LimitsSection{
			MaxConnections: DefaultMaxConnections,
			ReadTimeout:    DefaultReadTimeout,
			WriteTimeout:   DefaultWriteTimeout,
			IdleTimeout:    DefaultIdleTimeout,
		},
		Archive: ArchiveSection{
			Enabled:   false,
			Dir:       DefaultArchiveDir,
			Retention: DefaultArchiveRetention,
		},
		Admin: AdminSection{
			Enabled: false,
			Addr:    DefaultAdminAddr,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
