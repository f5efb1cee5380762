package rowstream

// Sink receives transformer emissions in emission order. The driver calls
// Emit once per push/flush that produced rows; implementations must append,
// never reorder.
type Sink interface {
	Emit(rows []OutputRow)
}

// Accumulator is the default Sink: an append-only buffer. Its contents after
// Flush are the authoritative output sequence of the invocation.
type Accumulator struct {
	rows []OutputRow
}

func (a *Accumulator) Emit(rows []OutputRow) {
	a.rows = append(a.rows, rows...)
}

// Rows returns the accumulated output. The slice is owned by the
// Accumulator; callers must not hold it across a reuse.
func (a *Accumulator) Rows() []OutputRow { return a.rows }

// Len reports how many rows have been accumulated so far.
func (a *Accumulator) Len() int { return len(a.rows) }
