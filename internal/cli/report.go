package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/knowbot/internal/api"
)

func newReportCmd(e *env) *cobra.Command {
	var (
		issueType      string
		description    string
		conversationID string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report a problem with a bot answer",
		Long: `Report a problem with a bot answer to the support team.

Issue types: outdated, incorrect, incomplete, unclear, other.

Examples:
  knowbot report --type outdated --description "The 2023 holiday list is shown"
  knowbot report -t incorrect -d "Wrong PTO balance" -c 1718452800000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if issueType == "" || description == "" {
				return errors.New("--type and --description are required")
			}

			rep := api.ReportIssueRequest{
				IssueType:      issueType,
				Description:    description,
				ConversationID: conversationID,
				Timestamp:      time.Now().UTC().Format(time.RFC3339),
			}
			if conversationID != "" {
				d, err := e.client.GetConversation(cmd.Context(), conversationID)
				if err != nil {
					return err
				}
				rep.ConversationTitle = d.Conversation.Title
			}

			res, err := e.client.ReportIssue(cmd.Context(), rep)
			if err != nil {
				return err
			}
			p := e.printer(cmd)
			p.success("%s", res.Message)
			if res.ID != "" {
				p.hint("reference %s", res.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&issueType, "type", "t", "", "issue type")
	cmd.Flags().StringVarP(&description, "description", "d", "", "what is wrong")
	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "conversation the answer came from")
	return cmd
}
