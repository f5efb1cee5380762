// Package tsimputer implements the TimeSeriesImputer kernel: the boundary
// between statically-typed batch tensors and a type-erased streaming row
// transformer.
//
// One invocation runs four stages in order. Shapes are checked first, before
// any row is touched. Rows are then encoded to canonical form and pushed
// into a fresh transformer built from the state blob, with everything the
// transformer emits collected in emission order. A single flush closes the
// stream. Finally the collected rows are materialized into four typed output
// tensors, re-validating per-row arity. The stages either all succeed or the
// invocation fails with no output published.
//
// The transformer is opaque here: how gaps are detected or values filled is
// entirely the policy's business, reached only through the push/flush
// contract and the state-blob constructor.
package tsimputer

import (
	"fmt"

	"tsimpute/internal/exec"
	"tsimpute/internal/frame"
	"tsimpute/internal/rowcodec"
	"tsimpute/internal/rowstream"
)

// Name is the kernel's registry name.
const Name = "TimeSeriesImputer"

// elementTypes is the set of scalar tags admitted for keys and data.
var elementTypes = []frame.DType{frame.Int64, frame.Float32, frame.Float64, frame.String}

// Kernel adapts typed batches to a transformer's canonical-row contract.
// The factory builds one fresh transformer per invocation from the opaque
// trained-state bytes in input 0.
type Kernel struct {
	factory rowstream.Factory
}

func New(factory rowstream.Factory) *Kernel {
	return &Kernel{factory: factory}
}

func (k *Kernel) Name() string { return Name }

func (k *Kernel) Signature() exec.Signature {
	return exec.Signature{
		Inputs: []exec.Slot{
			{Name: "state", Types: []frame.DType{frame.Uint8}},
			{Name: "times", Types: []frame.DType{frame.Int64}},
			{Name: "keys", Types: elementTypes},
			{Name: "data", Types: elementTypes},
		},
		Outputs: []exec.Slot{
			{Name: "synthesized", Types: []frame.DType{frame.Bool}},
			{Name: "time", Types: []frame.DType{frame.Int64}},
			{Name: "keys", Types: elementTypes},
			{Name: "data", Types: elementTypes},
		},
	}
}

// Compute validates the batch, then dispatches on the declared element tag.
// The tag decides the codec specialization for both encode and materialize;
// keys and data always share it (CheckBatch enforces that).
func (k *Kernel) Compute(ctx *exec.Context) error {
	state, times, keys, data := ctx.Input(0), ctx.Input(1), ctx.Input(2), ctx.Input(3)

	if r := state.Rank(); r != 1 {
		return &frame.ShapeError{Input: "state", Detail: fmt.Sprintf("rank %d, want 1", r)}
	}
	if err := frame.CheckBatch(times, keys, data); err != nil {
		return err
	}

	switch keys.DType() {
	case frame.Int64:
		return computeTyped[int64](ctx, k.factory, state, times, keys, data)
	case frame.Float32:
		return computeTyped[float32](ctx, k.factory, state, times, keys, data)
	case frame.Float64:
		return computeTyped[float64](ctx, k.factory, state, times, keys, data)
	case frame.String:
		return computeTyped[string](ctx, k.factory, state, times, keys, data)
	}
	return &frame.ShapeError{Input: "keys", Detail: fmt.Sprintf("dtype %s not supported", keys.DType())}
}

func computeTyped[T frame.Element](ctx *exec.Context, factory rowstream.Factory, state, times, keys, data *frame.Tensor) error {
	blob, err := frame.Data[uint8](state)
	if err != nil {
		return err
	}
	ts, err := frame.Data[int64](times)
	if err != nil {
		return err
	}
	kv, err := frame.Data[T](keys)
	if err != nil {
		return err
	}
	dv, err := frame.Data[T](data)
	if err != nil {
		return err
	}

	rows := int(times.Dim(0))
	kWidth := int(keys.Dim(1))
	cWidth := int(data.Dim(1))

	tr, err := factory(blob)
	if err != nil {
		return fmt.Errorf("construct transformer: %w", err)
	}

	var acc rowstream.Accumulator
	drv := rowstream.NewDriver(tr, &acc)
	for r := 0; r < rows; r++ {
		row := rowstream.Row{
			Time: ts[r],
			Keys: make([]string, kWidth),
			Data: make([]rowcodec.Cell, cWidth),
		}
		for j := 0; j < kWidth; j++ {
			row.Keys[j] = rowcodec.EncodeKey(kv[r*kWidth+j])
		}
		for j := 0; j < cWidth; j++ {
			row.Data[j] = rowcodec.EncodeValue(dv[r*cWidth+j])
		}
		if err := drv.Push(row); err != nil {
			return fmt.Errorf("push row %d: %w", r, err)
		}
	}
	if err := drv.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	outs, err := materialize[T](acc.Rows(), kWidth, cWidth)
	if err != nil {
		return err
	}
	ctx.SetOutputs(outs...)
	return nil
}
