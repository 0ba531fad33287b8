// Package cli provides the command-line interface for knowbot.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/knowbot/internal/client"
	"github.com/raphaelgruber/knowbot/internal/config"
)

// Version is set at build time.
var Version = "0.1.0"

// env holds state shared by every command of one invocation.
type env struct {
	serverURL string
	noColor   bool

	client   *client.Client
	logger   *slog.Logger
	closeLog func() error
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	e := &env{}

	rootCmd := &cobra.Command{
		Use:   "knowbot",
		Short: "Knowledge Bot workspace client",
		Long: `Knowbot talks to a knowbot-server: sign in, chat with the Knowledge Bot,
organize conversations into projects, browse question analytics and report
problems with answers.

The server address is read from --server or KNOWBOT_SERVER_URL.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			e.logger, e.closeLog = config.SetupFileLogger(cfg.LogFile, cfg.LogLevel)

			endpoint := e.serverURL
			if endpoint == "" && os.Getenv("KNOWBOT_SERVER_URL") == "" {
				endpoint = "http://localhost:" + cfg.ServerPort
			}
			e.client = client.New(endpoint)
			e.logger.Debug("running command", "command", cmd.CommandPath(), "server", e.client.Endpoint())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.closeLog != nil {
				_ = e.closeLog()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&e.serverURL, "server", "", "server URL (default $KNOWBOT_SERVER_URL or "+client.DefaultEndpoint+")")
	rootCmd.PersistentFlags().BoolVar(&e.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(
		newLoginCmd(e),
		newLogoutCmd(e),
		newWhoamiCmd(e),
		newConversationsCmd(e),
		newSidebarCmd(e),
		newProjectsCmd(e),
		newAskCmd(e),
		newReportCmd(e),
		newAnalyticsCmd(e),
		newStatsCmd(e),
		newWatchCmd(e),
	)
	return rootCmd
}

// Execute runs the CLI with ctx, which is cancelled on interrupt by main.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}
