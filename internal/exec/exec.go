// Package exec hosts kernel declaration and dispatch: a kernel states its
// positional input/output type contract in a Signature, receives inputs
// through a Context, and publishes outputs back through it. The host checks
// the declared contract around Compute so kernels can assume admitted
// dtypes.
package exec

import (
	"fmt"

	"tsimpute/internal/frame"
)

// Slot declares one positional tensor: a name for diagnostics and the set of
// dtype tags it admits.
type Slot struct {
	Name  string
	Types []frame.DType
}

func (s Slot) admits(dt frame.DType) bool {
	for _, t := range s.Types {
		if t == dt {
			return true
		}
	}
	return false
}

// Signature is a kernel's declared contract. Inputs are checked before
// Compute runs; the output count is checked after it returns.
type Signature struct {
	Inputs  []Slot
	Outputs []Slot
}

// CheckInputs verifies input count and per-slot dtype admission.
func (s Signature) CheckInputs(ctx *Context) error {
	if got, want := ctx.NumInputs(), len(s.Inputs); got != want {
		return fmt.Errorf("exec: %d inputs, want %d", got, want)
	}
	for i, slot := range s.Inputs {
		if dt := ctx.Input(i).DType(); !slot.admits(dt) {
			return fmt.Errorf("exec: input %d (%s): dtype %s not admitted", i, slot.Name, dt)
		}
	}
	return nil
}

// Kernel is one operation the host can run.
type Kernel interface {
	Name() string
	Signature() Signature
	Compute(ctx *Context) error
}

// Context carries a single invocation: read-only positional inputs, and the
// outputs the kernel publishes on success. A kernel that fails must leave
// the outputs unset.
type Context struct {
	inputs  []*frame.Tensor
	outputs []*frame.Tensor
}

func NewContext(inputs ...*frame.Tensor) *Context {
	return &Context{inputs: inputs}
}

func (c *Context) NumInputs() int             { return len(c.inputs) }
func (c *Context) Input(i int) *frame.Tensor  { return c.inputs[i] }
func (c *Context) Outputs() []*frame.Tensor   { return c.outputs }
func (c *Context) SetOutputs(ts ...*frame.Tensor) {
	c.outputs = ts
}

// Run drives one kernel invocation end to end: input check, Compute, output
// arity check. Errors are wrapped with the kernel name; typed errors remain
// reachable through errors.As.
func Run(k Kernel, inputs ...*frame.Tensor) ([]*frame.Tensor, error) {
	ctx := NewContext(inputs...)
	sig := k.Signature()
	if err := sig.CheckInputs(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", k.Name(), err)
	}
	if err := k.Compute(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", k.Name(), err)
	}
	if got, want := len(ctx.Outputs()), len(sig.Outputs); got != want {
		return nil, fmt.Errorf("%s: kernel published %d outputs, want %d", k.Name(), got, want)
	}
	return ctx.Outputs(), nil
}
