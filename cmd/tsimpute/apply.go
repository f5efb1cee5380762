package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tsimpute/internal/batchio"
	"tsimpute/internal/config"
	"tsimpute/internal/metrics"
	"tsimpute/internal/metrics/datadog"
	"tsimpute/internal/metrics/prompush"
	"tsimpute/internal/runner"
	"tsimpute/internal/storage"
)

type applyOptions struct {
	configPath  string
	windowRows  int64
	parallelism int
}

// NewApplyCommand creates the "apply" subcommand: run the imputation kernel
// over one batch per the job config.
func NewApplyCommand(root *RootOptions) *cobra.Command {
	opts := &applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a trained archive to a batch",
		Long: "Loads a job config, reads the input batch, runs the imputation\n" +
			"kernel window by window, and writes the materialized output to the\n" +
			"configured destination (CSV, Arrow IPC, or a database sink).",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "job config file (JSON or YAML)")
	cmd.Flags().Int64Var(&opts.windowRows, "window-rows", 0, "override runtime.window_rows")
	cmd.Flags().IntVar(&opts.parallelism, "parallelism", 0, "override runtime.parallelism")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runApply(cmd *cobra.Command, root *RootOptions, opts *applyOptions) error {
	logger, err := newLogger(root)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	ctx := cmd.Context()

	job, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	issues := config.ValidateJob(job)
	for _, iss := range issues {
		fmt.Fprintln(cmd.ErrOrStderr(), iss.Error())
	}
	if config.HasErrors(issues) {
		return fmt.Errorf("job config %s has errors", opts.configPath)
	}

	if err := setupMetrics(job); err != nil {
		return err
	}
	defer func() {
		if err := metrics.Flush(); err != nil {
			logger.Warn("metrics flush failed", zap.Error(err))
		}
	}()

	batch, err := readBatch(job.Input)
	if err != nil {
		return err
	}
	state, err := os.ReadFile(job.State.Path)
	if err != nil {
		return fmt.Errorf("read state archive: %w", err)
	}

	windowRows := int64(job.Runtime.WindowRows)
	if opts.windowRows > 0 {
		windowRows = opts.windowRows
	}
	parallelism := job.Runtime.Parallelism
	if opts.parallelism > 0 {
		parallelism = opts.parallelism
	}

	res, sum, err := runner.Run(ctx, state, batch, runner.Options{
		WindowRows:  windowRows,
		Parallelism: parallelism,
		RunID:       job.Name,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	loaded, err := writeOutput(cmd, job, res)
	if err != nil {
		return err
	}
	metrics.RecordRows(sum.RunID, "loaded", loaded)

	fmt.Fprintf(cmd.OutOrStdout(),
		"run %s: %d rows in, %d rows out (%d synthesized), %d windows in %s\n",
		sum.RunID, sum.InputRows, sum.OutputRows, sum.Synthesized, sum.Windows, sum.Elapsed)
	return nil
}

// setupMetrics installs the configured metrics backend; no backend means
// the built-in no-op stays active.
func setupMetrics(job config.Job) error {
	switch job.Metrics.Backend {
	case "":
		return nil
	case "prometheus":
		b, err := prompush.NewBackend(job.Name, job.Metrics.PushURL)
		if err != nil {
			return err
		}
		metrics.SetBackend(b)
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       job.Metrics.Addr,
			Namespace:  job.Metrics.Options.String("namespace", ""),
			GlobalTags: job.Metrics.Options.StringSlice("global_tags"),
		})
		if err != nil {
			return err
		}
		metrics.SetBackend(b)
	default:
		return fmt.Errorf("unknown metrics backend %q", job.Metrics.Backend)
	}
	return nil
}

func readBatch(in config.Input) (*batchio.Batch, error) {
	spec, err := in.Spec()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(in.Path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	switch in.Kind {
	case "csv":
		return batchio.ReadCSV(f, spec)
	case "arrow":
		return batchio.ReadArrow(f, spec)
	}
	return nil, fmt.Errorf("unknown input kind %q", in.Kind)
}

// writeOutput lands the result per the job's output section and reports how
// many rows a database sink accepted (0 for file outputs).
func writeOutput(cmd *cobra.Command, job config.Job, res *batchio.Result) (int64, error) {
	out := job.Output
	switch out.Kind {
	case "":
		return 0, nil
	case "csv", "arrow":
		f, err := os.Create(out.Path)
		if err != nil {
			return 0, fmt.Errorf("create output: %w", err)
		}
		if out.Kind == "csv" {
			err = batchio.WriteCSV(f, res)
		} else {
			err = batchio.WriteArrow(f, res)
		}
		if err != nil {
			f.Close()
			return 0, err
		}
		return 0, f.Close()
	case "storage":
		ctx := cmd.Context()
		sink, err := storage.New(ctx, storage.Config{
			Kind:    out.DB.Kind,
			DSN:     out.DB.DSN,
			Table:   out.DB.Table,
			Columns: storage.ResultColumns(res),
		})
		if err != nil {
			return 0, err
		}
		defer sink.Close()
		if out.DB.AutoCreateTable {
			if err := sink.CreateTable(ctx); err != nil {
				return 0, err
			}
		}
		return runner.Load(ctx, sink, res, out.DB.BatchSize)
	}
	return 0, fmt.Errorf("unknown output kind %q", out.Kind)
}
