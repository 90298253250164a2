// Package config defines the server configuration structure.
package config

import "strings"

// Sanitize returns a copy of the config with the decoy password masked.
//
// The password is a lure, not a real credential, but operators still do
// not want it showing up verbatim in process logs or support bundles.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	if sanitized.Decoy.Password != "" {
		sanitized.Decoy.Password = maskSecret(sanitized.Decoy.Password)
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
