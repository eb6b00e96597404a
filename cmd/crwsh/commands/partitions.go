package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/elkincvco/crwsh/internal/ui/output"
	"github.com/elkincvco/crwsh/internal/ui/style"
	"github.com/spf13/cobra"
)

func (c *CLI) newPartitionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "partitions",
		Short: "List the partitions in the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := c.app.Partitions(cmd.Context(), c.configPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !output.IsTerminal(out) {
				return writeJSON(out, infos)
			}

			tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
			for _, p := range infos {
				marker := style.Circle
				if p.Current {
					marker = style.Dot
				}
				_, _ = fmt.Fprintf(tw, "%s %s\t%d entries\n", marker, p.Name, p.Entries)
			}
			return tw.Flush()
		},
	}
}
