package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tsimpute/internal/config"
)

// NewLintCommand creates the "lint" subcommand: statically validate a job
// config without running anything.
func NewLintCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lint <job-file>",
		Short: "Validate a job config and report issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := config.Load(args[0])
			if err != nil {
				return err
			}
			issues := config.ValidateJob(job)
			for _, iss := range issues {
				fmt.Fprintln(cmd.OutOrStdout(), iss.Error())
			}
			if config.HasErrors(issues) {
				return fmt.Errorf("%s: config has errors", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d warnings)\n", args[0], len(issues))
			return nil
		},
	}
}
