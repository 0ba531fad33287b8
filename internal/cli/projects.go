package cli

import (
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/knowbot/internal/models"
)

func newProjectsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "p"},
		Short:   "Manage projects",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List projects",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ps, err := e.client.ListProjects(cmd.Context())
				if err != nil {
					return err
				}
				p := e.printer(cmd)
				if len(ps) == 0 {
					p.hint("No projects yet. Create one with: knowbot projects create <name>")
					return nil
				}
				for _, pr := range ps {
					p.project(pr)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show a project with its conversations and files",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := e.client.GetProject(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				p := e.printer(cmd)
				p.heading(d.Project.Name)
				p.printf("\nConversations:\n")
				if len(d.Conversations) == 0 {
					p.hint("  none")
				}
				for _, c := range d.Conversations {
					p.conversation(c)
				}
				p.printf("\nFiles:\n")
				if len(d.Project.Files) == 0 {
					p.hint("  none")
				}
				for _, f := range d.Project.Files {
					p.printf("  %-18s %s (%s)\n", f.ID, f.Name, f.Type)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "create <name>",
			Short: "Create a project",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				pr, err := e.client.CreateProject(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				e.printer(cmd).success("Created project %s: %s", pr.ID, pr.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rename <id> <name>",
			Short: "Rename a project",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				pr, err := e.client.RenameProject(cmd.Context(), args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				e.printer(cmd).success("Renamed %s to %q", pr.ID, pr.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a project, keeping its conversations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := e.client.DeleteProject(cmd.Context(), args[0]); err != nil {
					return err
				}
				e.printer(cmd).success("Deleted project %s", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <project-id> <conversation-id>",
			Short: "Move a conversation into a project",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				pr, err := e.client.AddToProject(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				e.printer(cmd).success("Added %s to %s", args[1], pr.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <project-id> <conversation-id>",
			Short: "Take a conversation out of a project",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				pr, err := e.client.RemoveFromProject(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				e.printer(cmd).success("Removed %s from %s", args[1], pr.Name)
				return nil
			},
		},
		newAttachCmd(e),
		&cobra.Command{
			Use:   "detach <project-id> <file-id>",
			Short: "Remove a file from a project",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := e.client.RemoveFile(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				e.printer(cmd).success("Removed file %s", args[1])
				return nil
			},
		},
	)
	return cmd
}

// newAttachCmd records file metadata. Only the name, type and size of a
// local file are sent; its content never leaves the machine.
func newAttachCmd(e *env) *cobra.Command {
	var fileType string
	cmd := &cobra.Command{
		Use:   "attach <project-id> <file>",
		Short: "Attach a file to a project",
		Long: `Attach a file to a project. Only the file name, type and size are recorded.

If <file> exists locally its size and type are detected; otherwise the name is
recorded as given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta := models.FileMeta{Name: filepath.Base(args[1]), Type: fileType}
			if info, err := os.Stat(args[1]); err == nil && !info.IsDir() {
				meta.Size = info.Size()
			}
			if meta.Type == "" {
				meta.Type = mime.TypeByExtension(filepath.Ext(meta.Name))
			}
			if meta.Type == "" {
				meta.Type = "application/octet-stream"
			}

			f, err := e.client.AddFile(cmd.Context(), args[0], meta)
			if err != nil {
				return err
			}
			e.printer(cmd).success("Attached %s as %s", f.Name, f.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&fileType, "type", "", "MIME type (detected from the extension by default)")
	return cmd
}
