package tsimputer

import "fmt"

// ConsistencyError reports an emitted output row whose key or data arity
// does not match the batch's declared widths. It means the trained state and
// the supplied batch disagree about the row layout; the invocation is
// aborted with no output.
type ConsistencyError struct {
	Row   int    // index into the accumulated output sequence
	Field string // "keys" or "data"
	Got   int
	Want  int
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency: output row %d: %d %s cells, want %d", e.Row, e.Got, e.Field, e.Want)
}
