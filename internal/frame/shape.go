package frame

import "fmt"

// ShapeError reports an input batch whose rank, dimensions, or scalar types
// are inconsistent. It is raised before any row is encoded, so a caller that
// sees one knows no output was produced.
type ShapeError struct {
	Input  string // offending input name: "times", "keys", "data"
	Detail string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape: input %s: %s", e.Input, e.Detail)
}

// CheckBatch validates the three row-bearing inputs of a batch:
//
//	times rank 1, int64
//	keys  rank 2, dim0 == len(times)
//	data  rank 2, dim0 == len(times), same dtype as keys
//
// Pure check: no allocation, no row access. Returns *ShapeError on the first
// violation found, in input order.
func CheckBatch(times, keys, data *Tensor) error {
	if r := times.Rank(); r != 1 {
		return &ShapeError{Input: "times", Detail: fmt.Sprintf("rank %d, want 1", r)}
	}
	if dt := times.DType(); dt != Int64 {
		return &ShapeError{Input: "times", Detail: fmt.Sprintf("dtype %s, want int64", dt)}
	}
	rows := times.Dim(0)

	if r := keys.Rank(); r != 2 {
		return &ShapeError{Input: "keys", Detail: fmt.Sprintf("rank %d, want 2", r)}
	}
	if d := keys.Dim(0); d != rows {
		return &ShapeError{Input: "keys", Detail: fmt.Sprintf("dim0 %d, want %d rows", d, rows)}
	}

	if r := data.Rank(); r != 2 {
		return &ShapeError{Input: "data", Detail: fmt.Sprintf("rank %d, want 2", r)}
	}
	if d := data.Dim(0); d != rows {
		return &ShapeError{Input: "data", Detail: fmt.Sprintf("dim0 %d, want %d rows", d, rows)}
	}

	if kt, dt := keys.DType(), data.DType(); kt != dt {
		return &ShapeError{Input: "data", Detail: fmt.Sprintf("dtype %s, want %s to match keys", dt, kt)}
	}
	return nil
}
