// Package commands implements the CLI commands for crwsh.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/elkincvco/crwsh/internal/app"
	"github.com/elkincvco/crwsh/internal/build"
	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/spf13/cobra"
)

// CLI represents the command line interface for crwsh.
type CLI struct {
	app        Application
	rootCmd    *cobra.Command
	configPath string
	logJSON    bool
	onLogJSON  func(bool)
}

// Application represents the application logic interface.
type Application interface {
	Serve(ctx context.Context, opts app.ServeOptions) error
	Status(ctx context.Context, configPath string) (*domain.Status, error)
	SkipWaiting(ctx context.Context, configPath string) (bool, error)
	Notifications(ctx context.Context, configPath string) ([]domain.Notification, error)
	Partitions(ctx context.Context, configPath string) ([]app.PartitionInfo, error)
	Clean(ctx context.Context, configPath string, opts app.CleanOptions) ([]string, error)
}

// Option configures a CLI.
type Option func(*CLI)

// WithLogFormat registers the hook called with the value of --log-json before a
// command runs.
func WithLogFormat(fn func(json bool)) Option {
	return func(c *CLI) {
		c.onLogJSON = fn
	}
}

// New creates a new CLI instance with the given app.
func New(a Application, opts ...Option) *CLI {
	rootCmd := &cobra.Command{
		Use:           "crwsh",
		Short:         "Offline request interception for CarWash Pro",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}
	for _, opt := range opts {
		opt(c)
	}

	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", domain.ConfigFileName, "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVar(&c.logJSON, "log-json", false, "Write logs as JSON")
	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		if c.onLogJSON != nil {
			c.onLogJSON(c.logJSON)
		}
	}

	rootCmd.AddCommand(c.newServeCmd())
	rootCmd.AddCommand(c.newStatusCmd())
	rootCmd.AddCommand(c.newSkipWaitingCmd())
	rootCmd.AddCommand(c.newNotificationsCmd())
	rootCmd.AddCommand(c.newPartitionsCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
