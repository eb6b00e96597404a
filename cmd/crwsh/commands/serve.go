package commands

import (
	"github.com/elkincvco/crwsh/internal/app"
	"github.com/spf13/cobra"
)

func (c *CLI) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the interception server",
		Long: "Installs the configured version, then intercepts requests until interrupted. " +
			"Requests pass through to the network until installation completes.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			listen, _ := cmd.Flags().GetString("listen")
			watch, _ := cmd.Flags().GetBool("watch")

			return c.app.Serve(cmd.Context(), app.ServeOptions{
				ConfigPath: c.configPath,
				Listen:     listen,
				Watch:      watch,
			})
		},
	}

	cmd.Flags().StringP("listen", "l", "", "Address to listen on (overrides the configuration)")
	cmd.Flags().BoolP("watch", "w", false, "Install a new version when the configuration file changes")

	return cmd
}
