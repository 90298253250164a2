// Package main provides the entry point for redistrap.
//
// The binary runs a single decoy listener that:
//
//   - speaks the Redis wire protocol (inline and multi-bulk)
//   - rejects every AUTH attempt while recording the credentials
//   - emits one telemetry event per connection, command and disconnect
//   - optionally archives events to disk and serves Prometheus metrics
//
// Usage:
//
//	redistrap [flags] serve
//	redistrap --config /path/to/config.yaml
//
// Configuration comes from defaults, an optional YAML file and
// REDISTRAP_-prefixed environment variables, in that order.
package main
