package command

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/784356225/redistrap/internal/cli/connection"
	"github.com/784356225/redistrap/internal/cli/output"
	"github.com/784356225/redistrap/internal/telemetry/sink"
)

// eventsResponse mirrors GET /api/v1/events.
type eventsResponse struct {
	Count  int          `json:"count"`
	Events []sink.Event `json:"events"`
}

// EventsCommand lists recent captured attack events.
func EventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "List recent captured attack events",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of events to fetch",
				Value:   50,
			},
			&cli.StringFlag{
				Name:  "type",
				Usage: "Only show events of this type (connection, auth_attempt, command, disconnect, error)",
			},
		},
		Action: func(c *cli.Context) error {
			path := fmt.Sprintf("/api/v1/events?limit=%d", c.Int("limit"))
			resp, err := client(c).Get(c.Context, path)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", c.String("server"), err)
			}

			var events eventsResponse
			if err := connection.ParseResponse(resp, &events); err != nil {
				return err
			}

			filtered := events.Events
			if t := c.String("type"); t != "" {
				filtered = filtered[:0:0]
				for _, e := range events.Events {
					if e.Type == t {
						filtered = append(filtered, e)
					}
				}
			}

			if output.Format(c.String("output")) == output.FormatJSON {
				return formatter(c).Format(os.Stdout, eventsResponse{
					Count:  len(filtered),
					Events: filtered,
				})
			}

			table := &output.Table{Headers: []string{"TIME", "TYPE", "CLIENT", "DETAIL"}}
			for _, e := range filtered {
				table.AddRow(
					e.Timestamp.Format(time.RFC3339),
					e.Type,
					fmt.Sprintf("%s:%d", e.ClientIP, e.ClientPort),
					eventDetail(e),
				)
			}

			return formatter(c).Format(os.Stdout, table)
		},
	}
}

// eventDetail summarizes the type-specific payload of an event in one cell.
func eventDetail(e sink.Event) string {
	switch e.Type {
	case sink.TypeCommand:
		if len(e.Args) == 0 {
			return e.Command
		}
		return e.Command + " " + strings.Join(e.Args, " ")
	case sink.TypeAuthAttempt:
		if e.Username != "" {
			return fmt.Sprintf("user=%s password=%s", e.Username, e.Password)
		}
		return "password=" + e.Password
	case sink.TypeDisconnect:
		return fmt.Sprintf("duration=%dms", e.DurationMS)
	case sink.TypeError:
		return e.ErrorKind + ": " + e.Message
	default:
		return ""
	}
}
