package cli

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/knowbot/internal/api"
	"github.com/raphaelgruber/knowbot/internal/client"
)

func newAskCmd(e *env) *cobra.Command {
	var (
		conversationID string
		projectID      string
		newChat        bool
		timeout        time.Duration
	)
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send a message and wait for the bot's reply",
		Long: `Send a message to the Knowledge Bot and wait for its reply.

Without --conversation the message goes to the open conversation, or starts a
new one titled after the message.

Examples:
  knowbot ask "How do I submit an expense report?"
  knowbot ask --new "What are the holidays this year?"
  knowbot ask -c 1718452800000 "And for contractors?"
  knowbot ask -p project-1718452800000 --new "Who owns onboarding?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if newChat {
				if err := e.client.ClearActive(ctx); err != nil {
					return err
				}
			}

			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			req := api.SendMessageRequest{
				ConversationID: conversationID,
				ProjectID:      projectID,
				Text:           strings.Join(args, " "),
			}
			p := e.printer(cmd)

			var (
				res *client.AskResult
				err error
			)
			if p.tty {
				res, err = waitForReply(ctx, p, "Waiting for the bot... (q to stop)", func(ctx context.Context) (*client.AskResult, error) {
					return e.client.Ask(ctx, req)
				})
			} else {
				res, err = e.client.Ask(ctx, req)
			}
			switch {
			case errors.Is(err, client.ErrReplyCancelled):
				p.warn("The reply was cancelled by a newer message.")
				return nil
			case errors.Is(err, errStoppedWaiting):
				p.hint("Stopped waiting. The reply will still appear in the conversation.")
				return nil
			case errors.Is(err, context.DeadlineExceeded):
				p.warn("No reply within %s.", timeout)
				return nil
			case err != nil:
				return err
			}

			if res.Sent.Created {
				p.hint("New conversation %s: %s", res.Sent.Conversation.ID, res.Sent.Conversation.Title)
			}
			if res.Sent.Warning != "" {
				p.warn("Saved in memory only: %s", res.Sent.Warning)
			}
			p.message(res.Reply)
			return nil
		},
	}
	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "send to this conversation")
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "start the new conversation in this project")
	cmd.Flags().BoolVar(&newChat, "new", false, "start a new conversation")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "how long to wait for the reply")
	return cmd
}
