// Package command provides CLI command definitions for redistrap-cli.
//
// It uses urfave/cli/v2 for command parsing. Every command is a read-only
// query against the redistrap admin plane.
package command

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/784356225/redistrap/internal/cli/connection"
	"github.com/784356225/redistrap/internal/cli/output"
	"github.com/784356225/redistrap/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "redistrap-cli",
		Usage:   "Inspect a running redistrap decoy",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			StatusCommand(),
			EventsCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "redistrap admin address (e.g. localhost:9642)",
			EnvVars: []string{"REDISTRAP_ADMIN"},
			Value:   "localhost:9642",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json",
			Value:   "table",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
			Value: 30 * time.Second,
		},
	}
}

// client builds the admin API client from the global flags.
func client(c *cli.Context) *connection.Client {
	return connection.NewClient(c.String("server"), c.Duration("timeout"))
}

// formatter builds the output formatter from the global flags.
func formatter(c *cli.Context) output.Formatter {
	return output.NewFormatter(output.Format(c.String("output")))
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
