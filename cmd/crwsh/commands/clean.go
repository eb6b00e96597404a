package commands

import (
	"fmt"

	"github.com/elkincvco/crwsh/internal/app"
	"github.com/spf13/cobra"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete partitions left by previous versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, _ := cmd.Flags().GetBool("all")

			removed, err := c.app.Clean(cmd.Context(), c.configPath, app.CleanOptions{All: all})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(removed) == 0 {
				_, _ = fmt.Fprintln(out, "nothing to clean")
				return nil
			}
			for _, name := range removed {
				_, _ = fmt.Fprintf(out, "removed %s\n", name)
			}
			return nil
		},
	}

	cmd.Flags().BoolP("all", "a", false, "Also delete the partitions of the configured version")

	return cmd
}
