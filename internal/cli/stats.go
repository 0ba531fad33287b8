package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/knowbot/internal/models"
)

func newStatsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show workspace counts and server statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := e.client.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("get server stats: %w", err)
			}
			p := e.printer(cmd)
			p.heading("Workspace")
			p.printf("Conversations: %d (%d archived)\n", st.Conversations, st.Archived)
			p.printf("Projects:      %d\n", st.Projects)

			p.printf("\n")
			p.heading("Server Statistics (in-memory, since restart)")
			p.printf("Uptime: %.1f seconds\n", st.Metrics.UptimeSeconds)
			p.opStats("HTTP Requests", st.Metrics.HTTPRequest)
			p.opStats("Bot Replies", st.Metrics.Reply)
			p.opStats("Email Sends", st.Metrics.EmailSend)
			p.opStats("State Saves", st.Metrics.StateSave)
			return nil
		},
	}
}

func newWatchCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream workspace changes until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			events, err := e.client.Events(ctx)
			if err != nil {
				return err
			}
			defer events.Close()

			p := e.printer(cmd)
			p.hint("Watching %s, press Ctrl+C to stop.", e.client.Endpoint())
			for {
				ev, err := events.Next()
				if err != nil {
					if ctx.Err() != nil || errors.Is(err, context.Canceled) {
						return nil
					}
					return fmt.Errorf("read event: %w", err)
				}
				p.event(ev)
			}
		},
	}
}

func (p *printer) event(ev models.Event) {
	subject := ev.ConversationID
	if subject == "" {
		subject = ev.ProjectID
	}
	switch {
	case ev.Message != nil:
		p.printf("%-22s %s ", ev.Type, subject)
		p.message(*ev.Message)
	case ev.Type == models.EventReplyFailed:
		p.warn("%-22s %s", ev.Type, subject)
	default:
		p.printf("%-22s %s\n", ev.Type, subject)
	}
}
