// Package command provides CLI command definitions for redistrap-cli.
//
// Commands:
//
//   - status: version, uptime and listener state of a running decoy
//   - events: recent captured attack events, filterable by type
//
// All commands talk to the admin plane over HTTP and never touch the
// decoy listener itself.
package command
