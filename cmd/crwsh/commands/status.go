package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/elkincvco/crwsh/internal/ui/output"
	"github.com/elkincvco/crwsh/internal/ui/style"
	"github.com/spf13/cobra"
)

func (c *CLI) newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of the running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			status, err := c.app.Status(cmd.Context(), c.configPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON || !output.IsTerminal(out) {
				return writeJSON(out, status)
			}
			_, err = io.WriteString(out, renderStatus(status, time.Now()))
			return err
		},
	}

	cmd.Flags().Bool("json", false, "Print JSON even on a terminal")

	return cmd
}

func (c *CLI) newSkipWaitingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skip-waiting",
		Short: "Promote the waiting version of the running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			handled, err := c.app.SkipWaiting(cmd.Context(), c.configPath)
			if err != nil {
				return err
			}
			if !handled {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "command ignored")
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), style.Check+" skip waiting sent")
			return nil
		},
	}
}

func (c *CLI) newNotificationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notifications",
		Short: "List the notifications displayed by the running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := c.app.Notifications(cmd.Context(), c.configPath)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), list)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderStatus(s *domain.Status, now time.Time) string {
	var b strings.Builder

	b.WriteString(style.Heading.Render(s.App))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(style.Label.Render(label))
		b.WriteString(" ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	row("origin", s.Origin)
	row("configured", "v"+s.Configured)
	row("active", renderEpoch(s.Lifecycle.Active))
	row("waiting", renderEpoch(s.Lifecycle.Waiting))
	row("windows", fmt.Sprint(s.Windows))
	row("pending", fmt.Sprint(s.Pending))
	row("uptime", s.Uptime(now).String())
	row("pid", fmt.Sprint(s.PID))

	if len(s.Partitions) > 0 {
		b.WriteString("\n")
		b.WriteString(style.Heading.Render("partitions"))
		b.WriteString("\n")
		for _, name := range s.Partitions {
			b.WriteString("  ")
			b.WriteString(name)
			b.WriteString("\n")
		}
	}

	return b.String()
}

func renderEpoch(e *domain.Epoch) string {
	if e == nil {
		return lipgloss.NewStyle().Foreground(style.Slate).Render("none")
	}
	return style.State(e.State) + " v" + e.Version
}
