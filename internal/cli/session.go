package cli

import (
	"github.com/spf13/cobra"
)

func newLoginCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in to the workspace",
		Long: `Sign in with any email address. There is no password: the server only
records that the workspace is unlocked and who unlocked it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.client.Login(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			e.printer(cmd).success("Signed in as %s", s.Email)
			return nil
		},
	}
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out of the workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.client.Logout(cmd.Context()); err != nil {
				return err
			}
			e.printer(cmd).success("Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.client.Session(cmd.Context())
			if err != nil {
				return err
			}
			p := e.printer(cmd)
			if !s.Authenticated {
				p.hint("Not signed in. Run: knowbot login <email>")
				return nil
			}
			p.printf("%s\n", s.Email)
			return nil
		},
	}
}
