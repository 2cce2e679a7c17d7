package commands

import (
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"intake/internal/registry/loader"
)

func (c *CLI) newInspectCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Load a registry file and report what the index would contain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := loader.New(args[0]).Load(cmd.Context())
			if snap.Err != nil {
				return snap.Err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "source:   %s\n", snap.Source)
			fmt.Fprintf(out, "records:  %d\n", snap.Len())
			fmt.Fprintf(out, "skipped:  %d\n", snap.SkippedTotal())
			for _, reason := range slices.Sorted(maps.Keys(snap.Skipped)) {
				fmt.Fprintf(out, "  %s: %d\n", reason, snap.Skipped[reason])
			}
			fmt.Fprintf(out, "checksum: %016x\n", snap.Checksum)

			if list {
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tCITY")
				for _, rec := range snap.Records {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", rec.ID, rec.Name, rec.City)
				}
				return tw.Flush()
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "Print every parsed record")
	return cmd
}
