package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds global flags shared by all subcommands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for the tsimpute CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tsimpute",
		Short: "Time-series gap imputation over tabular batches",
		Long: "tsimpute fits an imputation model on historical rows, stores it as a\n" +
			"self-checking archive, and applies it to batches: gaps in each key\n" +
			"group's timeline are filled with synthesized rows and absent values\n" +
			"are imputed per the trained strategy.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug-level logging")

	cmd.AddCommand(NewFitCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewLintCommand(opts))

	return cmd
}

// newLogger builds the CLI logger. Production config by default; --verbose
// lowers the level to debug.
func newLogger(opts *RootOptions) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if opts.Verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
