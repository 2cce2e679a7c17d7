package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"intake/internal/platform/config"
	"intake/internal/registry/loader"
	"intake/internal/registry/service"
)

func (c *CLI) newSearchCmd() *cobra.Command {
	var (
		minLength int
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "search <file> <query>",
		Short: "Run an institution name query against a registry file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := loader.New(args[0]).Load(cmd.Context())
			if snap.Err != nil {
				return snap.Err
			}

			results := service.Match(snap, args[1], minLength, limit)
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "no matches")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCITY")
			for _, rec := range results {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", rec.ID, rec.Name, rec.City)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&minLength, "min-length", config.DefaultMinQueryLength, "Minimum query length in characters")
	cmd.Flags().IntVar(&limit, "limit", service.MaxResults, "Maximum number of results")
	return cmd
}
