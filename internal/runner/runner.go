// Package runner executes the imputation kernel over a full input batch:
// it splits the batch into row windows, runs one kernel invocation per
// window with bounded parallelism, and reassembles the outputs in window
// order. Each invocation gets its own kernel and transformer instance, so
// windows never share mutable state; only the read-only trained-state bytes
// are shared.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tsimpute/internal/batchio"
	"tsimpute/internal/exec"
	"tsimpute/internal/frame"
	"tsimpute/internal/metrics"
	"tsimpute/internal/storage"
)

// Options tunes one run. The zero value processes the whole batch in a
// single window on one goroutine with a no-op logger.
type Options struct {
	// Kernel is the registered kernel name. Empty selects "TimeSeriesImputer".
	Kernel string

	// WindowRows caps the row count per invocation. Zero or negative means
	// one window for the whole batch.
	WindowRows int64

	// Parallelism bounds concurrent invocations. Zero or negative means 1.
	Parallelism int

	// RunID identifies the run in logs and metrics. Empty generates one.
	RunID string

	Logger *zap.Logger
}

const defaultKernel = "TimeSeriesImputer"

// Summary reports what one run did.
type Summary struct {
	RunID       string
	Windows     int
	InputRows   int64
	OutputRows  int64
	Synthesized int64
	Elapsed     time.Duration
}

// Run processes batch through the kernel built from the given trained-state
// bytes. Output windows are reassembled in input order regardless of
// completion order; a failed window fails the whole run and no result is
// returned. Context cancellation stops scheduling and propagates ctx.Err().
func Run(ctx context.Context, state []byte, batch *batchio.Batch, opts Options) (*batchio.Result, *Summary, error) {
	kernelName := opts.Kernel
	if kernelName == "" {
		kernelName = defaultKernel
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	parallelism := opts.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}

	stateT, err := frame.FromSlice(state, int64(len(state)))
	if err != nil {
		return nil, nil, fmt.Errorf("runner: wrap state: %w", err)
	}

	start := time.Now()
	spans := windowSpans(batch.Rows(), opts.WindowRows)
	logger.Info("run started",
		zap.String("run_id", runID),
		zap.String("kernel", kernelName),
		zap.Int64("input_rows", batch.Rows()),
		zap.Int("windows", len(spans)),
		zap.Int("parallelism", parallelism),
	)

	// One output slot per window keeps reassembly order independent of
	// completion order.
	outs := make([][]*frame.Tensor, len(spans))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, sp := range spans {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sub, err := sliceBatch(batch, sp)
			if err != nil {
				return fmt.Errorf("window %d: %w", i, err)
			}
			k, err := exec.Lookup(kernelName)
			if err != nil {
				return err
			}
			wStart := time.Now()
			tensors, err := exec.Run(k, stateT, sub.Times, sub.Keys, sub.Data)
			metrics.RecordStep(runID, "transform", err, time.Since(wStart))
			if err != nil {
				return fmt.Errorf("window %d (rows %d..%d): %w", i, sp.Start, sp.End, err)
			}
			outs[i] = tensors
			logger.Debug("window done",
				zap.String("run_id", runID),
				zap.Int("window", i),
				zap.Int64("rows_in", sp.End-sp.Start),
				zap.Int64("rows_out", tensors[0].Dim(0)),
				zap.Duration("elapsed", time.Since(wStart)),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	metrics.RecordWindows(runID, int64(len(spans)))

	res, err := assemble(batch, outs)
	if err != nil {
		return nil, nil, fmt.Errorf("runner: assemble: %w", err)
	}

	sum := &Summary{
		RunID:      runID,
		Windows:    len(spans),
		InputRows:  batch.Rows(),
		OutputRows: res.Synth.Dim(0),
		Elapsed:    time.Since(start),
	}
	if sum.Synthesized, err = countSynth(res.Synth); err != nil {
		return nil, nil, err
	}
	metrics.RecordRows(runID, "input", sum.InputRows)
	metrics.RecordRows(runID, "output", sum.OutputRows)
	metrics.RecordRows(runID, "synthesized", sum.Synthesized)
	logger.Info("run finished",
		zap.String("run_id", runID),
		zap.Int64("output_rows", sum.OutputRows),
		zap.Int64("synthesized_rows", sum.Synthesized),
		zap.Duration("elapsed", sum.Elapsed),
	)
	return res, sum, nil
}

// assemble concatenates per-window output tensors into one Result carrying
// the input batch's column names.
func assemble(batch *batchio.Batch, outs [][]*frame.Tensor) (*batchio.Result, error) {
	parts := func(slot int) []*frame.Tensor {
		ts := make([]*frame.Tensor, len(outs))
		for i, o := range outs {
			ts[i] = o[slot]
		}
		return ts
	}
	synth, err := concatTensors(parts(0))
	if err != nil {
		return nil, err
	}
	times, err := concatTensors(parts(1))
	if err != nil {
		return nil, err
	}
	keys, err := concatTensors(parts(2))
	if err != nil {
		return nil, err
	}
	data, err := concatTensors(parts(3))
	if err != nil {
		return nil, err
	}
	return &batchio.Result{
		Batch: batchio.Batch{
			Times:     times,
			Keys:      keys,
			Data:      data,
			TimeName:  batch.TimeName,
			KeyNames:  batch.KeyNames,
			DataNames: batch.DataNames,
		},
		Synth: synth,
	}, nil
}

func countSynth(t *frame.Tensor) (int64, error) {
	flags, err := frame.Data[bool](t)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n, nil
}

// Load streams a materialized result into a storage sink in batches of
// batchSize rows and reports how many landed. The sink's table must already
// exist (call Sink.CreateTable first when bootstrapping).
func Load(ctx context.Context, sink storage.Sink, res *batchio.Result, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 5000
	}
	cols := storage.ColumnNames(storage.ResultColumns(res))
	rows, err := storage.ResultRows(res)
	if err != nil {
		return 0, err
	}

	in := make(chan []any)
	go func() {
		defer close(in)
		for _, r := range rows {
			select {
			case in <- r:
			case <-ctx.Done():
				return
			}
		}
	}()
	return storage.LoadBatches(ctx, cols, in, batchSize, sink.CopyRows)
}
