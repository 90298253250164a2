// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"
	"os"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if cfg.Listen.Host == "" {
		return errors.New("listen.host is required")
	}
	if cfg.Listen.Port < 1 || cfg.Listen.Port > 65535 {
		return fmt.Errorf("listen.port %d is out of range", cfg.Listen.Port)
	}

	if cfg.Decoy.RedisVersion == "" {
		return errors.New("decoy.redis_version is required")
	}

	if cfg.Limits.MaxConnections < 0 {
		return errors.New("limits.max_connections must not be negative")
	}
	if cfg.Limits.RateLimit < 0 {
		return errors.New("limits.rate_limit must not be negative")
	}

	if cfg.Archive.Enabled {
		if cfg.Archive.Dir == "" {
			return errors.New("archive.dir is required when archive is enabled")
		}
		if err := os.MkdirAll(cfg.Archive.Dir, 0750); err != nil {
			return errors.New("cannot create archive directory: " + err.Error())
		}
	}

	if cfg.Admin.Enabled && cfg.Admin.Addr == "" {
		return errors.New("admin.addr is required when the admin plane is enabled")
	}

	return nil
}
