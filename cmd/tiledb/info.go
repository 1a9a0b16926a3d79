package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <array-uri>",
		Short: "Print the schema and fragments of an array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arr, err := a.sm.OpenArray(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := arr.Schema().Dump(out); err != nil {
				return err
			}

			frags := arr.FragmentMetadata()
			fmt.Fprintf(out, "\n=== Fragments (%d) ===\n", len(frags))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tWRITTEN\tCELLS\tTILES\tDOMAIN")
			for _, f := range frags {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%v\n",
					f.Name,
					time.UnixMilli(f.Timestamp).UTC().Format(time.RFC3339),
					f.CellNum(),
					f.TileNum(),
					f.Domain,
				)
			}
			return tw.Flush()
		},
	}
}
