package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tsimpute/internal/batchio"
	"tsimpute/internal/frame"
	"tsimpute/internal/imputer"
)

type fitOptions struct {
	input       string
	out         string
	dtype       string
	timeColumn  string
	keyColumns  []string
	dataColumns []string
	strategy    string
}

// NewFitCommand creates the "fit" subcommand: learn an imputation archive
// from historical CSV rows.
func NewFitCommand(root *RootOptions) *cobra.Command {
	opts := &fitOptions{}

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit an imputation archive from historical rows",
		Long: "Reads time-ordered rows from a CSV file, learns the expected row\n" +
			"spacing per key group and a fill value per data column, and writes\n" +
			"the result as a trained-state archive for apply.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFit(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "historical rows CSV")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "archive destination path")
	cmd.Flags().StringVar(&opts.dtype, "dtype", "string", "element type of key/data columns (int64|float32|float64|string)")
	cmd.Flags().StringVar(&opts.timeColumn, "time-column", "time", "timestamp column name")
	cmd.Flags().StringSliceVar(&opts.keyColumns, "key-columns", nil, "group-key column names, in order")
	cmd.Flags().StringSliceVar(&opts.dataColumns, "data-columns", nil, "value column names, in order")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "ffill", "fill strategy (ffill|bfill|median)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("out")
	_ = cmd.MarkFlagRequired("key-columns")
	_ = cmd.MarkFlagRequired("data-columns")

	return cmd
}

func runFit(cmd *cobra.Command, root *RootOptions, opts *fitOptions) error {
	logger, err := newLogger(root)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	strategy, err := imputer.ParseStrategy(opts.strategy)
	if err != nil {
		return err
	}
	dt, err := frame.ParseDType(opts.dtype)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	batch, err := batchio.ReadCSV(f, batchio.Spec{
		TimeColumn:  opts.timeColumn,
		KeyColumns:  opts.keyColumns,
		DataColumns: opts.dataColumns,
		DType:       dt,
	})
	if err != nil {
		return err
	}
	rows, err := batchio.CanonicalRows(batch)
	if err != nil {
		return err
	}

	archive, err := imputer.Fit(rows, strategy)
	if err != nil {
		return err
	}
	blob, err := archive.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.out, blob, 0o644); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}

	logger.Info("fit complete",
		zap.String("archive", opts.out),
		zap.Int64("rows", batch.Rows()),
		zap.String("strategy", archive.Strategy.String()),
		zap.Int64("frequency_seconds", archive.Frequency),
		zap.Int("columns", archive.Columns()),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes, strategy=%s frequency=%ds columns=%d)\n",
		opts.out, len(blob), archive.Strategy, archive.Frequency, archive.Columns())
	return nil
}
