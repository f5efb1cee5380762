package rowstream

import "errors"

// Driver lifecycle states. A driver moves Streaming → Flushing → Done and
// never back; any transformer error also ends it.
type State uint8

const (
	Streaming State = iota
	Flushing
	Done
)

func (s State) String() string {
	switch s {
	case Streaming:
		return "streaming"
	case Flushing:
		return "flushing"
	case Done:
		return "done"
	}
	return "unknown"
}

var (
	// ErrPushAfterFlush reports a Push on a driver that already flushed.
	ErrPushAfterFlush = errors.New("rowstream: push after flush")
	// ErrDoubleFlush reports a second Flush on the same driver.
	ErrDoubleFlush = errors.New("rowstream: flush called twice")
)

// Driver feeds canonical rows into a transformer and forwards every emitted
// row to the sink, in emission order. One driver serves one invocation.
type Driver struct {
	tr    Transformer
	sink  Sink
	state State
}

func NewDriver(tr Transformer, sink Sink) *Driver {
	return &Driver{tr: tr, sink: sink}
}

// State reports the current lifecycle state.
func (d *Driver) State() State { return d.state }

// Push hands one input row to the transformer and forwards its emissions.
// A transformer error is terminal: the driver moves to Done and the error
// propagates to the caller unwrapped.
func (d *Driver) Push(r Row) error {
	if d.state != Streaming {
		return ErrPushAfterFlush
	}
	out, err := d.tr.Push(r)
	if err != nil {
		d.state = Done
		return err
	}
	if len(out) > 0 {
		d.sink.Emit(out)
	}
	return nil
}

// Flush signals end of input, forwards any trailing emissions, and moves the
// driver to Done. It runs exactly once per invocation, including when zero
// rows were pushed.
func (d *Driver) Flush() error {
	if d.state != Streaming {
		return ErrDoubleFlush
	}
	d.state = Flushing
	out, err := d.tr.Flush()
	d.state = Done
	if err != nil {
		return err
	}
	if len(out) > 0 {
		d.sink.Emit(out)
	}
	return nil
}

// Run is the whole lifecycle in one call: push every row in order, flush
// once, return the accumulated output. Used where the rows already exist as
// a slice; the kernel drives a Driver directly to avoid materializing them.
func Run(tr Transformer, rows []Row) ([]OutputRow, error) {
	var acc Accumulator
	d := NewDriver(tr, &acc)
	for _, r := range rows {
		if err := d.Push(r); err != nil {
			return nil, err
		}
	}
	if err := d.Flush(); err != nil {
		return nil, err
	}
	return acc.Rows(), nil
}
