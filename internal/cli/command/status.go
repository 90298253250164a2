package command

import (
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/784356225/redistrap/internal/cli/connection"
	"github.com/784356225/redistrap/internal/cli/output"
)

// statusResponse mirrors GET /api/v1/status.
type statusResponse struct {
	Version       string `json:"version"`
	Commit        string `json:"commit"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Listener      *struct {
		ActiveSessions int64 `json:"active_sessions"`
		TrackedClients int   `json:"tracked_clients"`
	} `json:"listener"`
	ArchiveBytes *int64 `json:"archive_bytes"`
}

// StatusCommand reports the decoy's version, uptime and listener state.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show decoy status",
		Action: func(c *cli.Context) error {
			resp, err := client(c).Get(c.Context, "/api/v1/status")
			if err != nil {
				return fmt.Errorf("connect to %s: %w", c.String("server"), err)
			}

			var status statusResponse
			if err := connection.ParseResponse(resp, &status); err != nil {
				return err
			}

			if output.Format(c.String("output")) == output.FormatJSON {
				return formatter(c).Format(os.Stdout, status)
			}

			table := &output.Table{Headers: []string{"FIELD", "VALUE"}}
			table.AddRow("version", status.Version)
			table.AddRow("commit", status.Commit)
			table.AddRow("uptime_seconds", strconv.FormatInt(status.UptimeSeconds, 10))
			if status.Listener != nil {
				table.AddRow("active_sessions", strconv.FormatInt(status.Listener.ActiveSessions, 10))
				table.AddRow("tracked_clients", strconv.Itoa(status.Listener.TrackedClients))
			}
			if status.ArchiveBytes != nil {
				table.AddRow("archive_bytes", strconv.FormatInt(*status.ArchiveBytes, 10))
			}

			return formatter(c).Format(os.Stdout, table)
		},
	}
}
