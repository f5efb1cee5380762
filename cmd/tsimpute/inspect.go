package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tsimpute/internal/imputer"
)

// NewInspectCommand creates the "inspect" subcommand: print a trained
// archive's parameters.
func NewInspectCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <archive>",
		Short: "Print a trained archive's parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var a imputer.Archive
			if err := a.UnmarshalBinary(blob); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "archive:   %s (%d bytes)\n", args[0], len(blob))
			fmt.Fprintf(w, "strategy:  %s\n", a.Strategy)
			fmt.Fprintf(w, "frequency: %ds\n", a.Frequency)
			fmt.Fprintf(w, "columns:   %d\n", a.Columns())
			for i, c := range a.FillValues {
				if c.Present {
					fmt.Fprintf(w, "  fill[%d] = %q\n", i, c.Value)
				} else {
					fmt.Fprintf(w, "  fill[%d] = (none)\n", i)
				}
			}
			return nil
		},
	}
}
