package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/knowbot/internal/client"
)

func newConversationsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv", "c"},
		Short:   "Manage conversations",
	}
	cmd.AddCommand(
		newConvListCmd(e),
		newConvShowCmd(e),
		newConvNewCmd(e),
		newConvRenameCmd(e),
		newConvArchiveCmd(e, true),
		newConvArchiveCmd(e, false),
		newConvDeleteCmd(e),
	)
	return cmd
}

func newConvListCmd(e *env) *cobra.Command {
	var (
		archived bool
		all      bool
		query    string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conversations, newest first",
		Long: `List conversations, newest first.

Examples:
  knowbot conversations list
  knowbot conversations list --archived
  knowbot conversations list --all -q pto`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := client.ListConversationsOptions{Query: query}
			switch {
			case all:
				opts.Archived = "all"
			case archived:
				opts.Archived = "true"
			}

			convs, err := e.client.ListConversations(cmd.Context(), opts)
			if err != nil {
				return err
			}
			p := e.printer(cmd)
			if len(convs) == 0 {
				p.hint("No conversations found.")
				return nil
			}
			for _, c := range convs {
				p.conversation(c)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&archived, "archived", false, "list archived conversations only")
	cmd.Flags().BoolVar(&all, "all", false, "list active and archived conversations")
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by title")
	return cmd
}

func newConvShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a conversation transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := e.client.GetConversation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p := e.printer(cmd)
			p.heading(d.Conversation.Title)
			if d.ProjectID != "" {
				p.hint("project %s", d.ProjectID)
			}
			p.printf("\n")
			for _, m := range d.Messages {
				p.message(m)
			}
			if d.Typing {
				p.hint("Bot is typing...")
			}
			if len(d.Suggestions) > 0 {
				p.printf("\n")
				p.hint("Suggested questions:")
				for _, s := range d.Suggestions {
					p.printf("  - %s\n", s)
				}
			}
			return nil
		},
	}
}

func newConvNewCmd(e *env) *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "new [title]",
		Short: "Create an empty conversation and open it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := ""
			if len(args) == 1 {
				title = args[0]
			}
			c, err := e.client.CreateConversation(cmd.Context(), title, projectID)
			if err != nil {
				return err
			}
			e.printer(cmd).success("Created conversation %s: %s", c.ID, c.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "create inside this project")
	return cmd
}

func newConvRenameCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Rename a conversation",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.client.RenameConversation(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			e.printer(cmd).success("Renamed %s to %q", c.ID, c.Title)
			return nil
		},
	}
}

func newConvArchiveCmd(e *env, archive bool) *cobra.Command {
	use, short, verb := "archive", "Archive a conversation", "Archived"
	if !archive {
		use, short, verb = "unarchive", "Restore an archived conversation", "Restored"
	}
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.client.SetArchived(cmd.Context(), args[0], archive)
			if err != nil {
				return err
			}
			e.printer(cmd).success("%s %s", verb, c.Title)
			return nil
		},
	}
}

func newConvDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a conversation and its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.client.DeleteConversation(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete conversation: %w", err)
			}
			e.printer(cmd).success("Deleted conversation %s", args[0])
			return nil
		},
	}
}

func newSidebarCmd(e *env) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "sidebar",
		Short: "Show projects and conversations grouped by recency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sb, err := e.client.Sidebar(cmd.Context(), query)
			if err != nil {
				return err
			}
			p := e.printer(cmd)

			if len(sb.Projects) > 0 {
				p.heading("PROJECTS")
				for _, pv := range sb.Projects {
					p.printf("  %s\n", pv.Name)
					for _, c := range pv.Conversations {
						p.printf("  ")
						p.conversation(c)
					}
				}
				p.printf("\n")
			}
			for _, g := range sb.Groups {
				p.heading(string(g.Category))
				for _, c := range g.Conversations {
					p.conversation(c)
				}
				p.printf("\n")
			}
			if len(sb.Archived) > 0 {
				p.heading("ARCHIVED")
				for _, c := range sb.Archived {
					p.conversation(c)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by title or project name")
	return cmd
}
