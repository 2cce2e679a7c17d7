// Package commands implements the registryctl subcommands.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

// CLI represents the registryctl command line interface.
type CLI struct {
	rootCmd *cobra.Command
}

// New creates the CLI with all subcommands registered.
func New() *CLI {
	rootCmd := &cobra.Command{
		Use:           "registryctl",
		Short:         "Inspect, query and invalidate the institution registry",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	c := &CLI{rootCmd: rootCmd}

	rootCmd.AddCommand(c.newInspectCmd())
	rootCmd.AddCommand(c.newSearchCmd())
	rootCmd.AddCommand(c.newInvalidateCmd())

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

// SetOutput redirects command output. Used for testing.
func (c *CLI) SetOutput(w io.Writer) {
	c.rootCmd.SetOut(w)
	c.rootCmd.SetErr(w)
}
