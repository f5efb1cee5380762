package runner

import (
	"fmt"

	"tsimpute/internal/batchio"
	"tsimpute/internal/frame"
)

// span is a half-open [Start,End) row range of a batch.
type span struct {
	Start, End int64
}

// windowSpans splits rows into consecutive spans of at most size rows each.
// size <= 0 yields one span covering the whole batch. An empty batch still
// yields one empty span: the kernel must run even for zero rows so the
// transformer's flush happens.
func windowSpans(rows, size int64) []span {
	if size <= 0 || size >= rows {
		return []span{{Start: 0, End: rows}}
	}
	spans := make([]span, 0, (rows+size-1)/size)
	for start := int64(0); start < rows; start += size {
		end := start + size
		if end > rows {
			end = rows
		}
		spans = append(spans, span{Start: start, End: end})
	}
	return spans
}

// sliceBatch views rows [s.Start,s.End) of b. The sub-batch aliases the
// parent tensors' storage; kernels treat inputs as read-only, so sharing is
// safe across concurrent windows.
func sliceBatch(b *batchio.Batch, s span) (*batchio.Batch, error) {
	times, err := sliceRows[int64](b.Times, s)
	if err != nil {
		return nil, err
	}
	keys, err := sliceTensor(b.Keys, s)
	if err != nil {
		return nil, err
	}
	data, err := sliceTensor(b.Data, s)
	if err != nil {
		return nil, err
	}
	return &batchio.Batch{
		Times:     times,
		Keys:      keys,
		Data:      data,
		TimeName:  b.TimeName,
		KeyNames:  b.KeyNames,
		DataNames: b.DataNames,
	}, nil
}

// sliceTensor dispatches sliceRows on the tensor's dtype tag.
func sliceTensor(t *frame.Tensor, s span) (*frame.Tensor, error) {
	switch t.DType() {
	case frame.Bool:
		return sliceRows[bool](t, s)
	case frame.Int64:
		return sliceRows[int64](t, s)
	case frame.Float32:
		return sliceRows[float32](t, s)
	case frame.Float64:
		return sliceRows[float64](t, s)
	case frame.String:
		return sliceRows[string](t, s)
	}
	return nil, fmt.Errorf("runner: cannot slice dtype %s", t.DType())
}

// sliceRows cuts rows [s.Start,s.End) out of a row-major tensor without
// copying. Trailing dimensions are preserved.
func sliceRows[T frame.Scalar](t *frame.Tensor, s span) (*frame.Tensor, error) {
	vals, err := frame.Data[T](t)
	if err != nil {
		return nil, err
	}
	dims := t.Dims()
	width := int64(1)
	for _, d := range dims[1:] {
		width *= d
	}
	dims[0] = s.End - s.Start
	return frame.FromSlice(vals[s.Start*width:s.End*width], dims...)
}

// concatTensors stacks parts along axis 0, in order. All parts must share
// the dtype tag and trailing dimensions of the first.
func concatTensors(parts []*frame.Tensor) (*frame.Tensor, error) {
	if len(parts) == 1 {
		return parts[0], nil
	}
	switch parts[0].DType() {
	case frame.Bool:
		return concatRows[bool](parts)
	case frame.Int64:
		return concatRows[int64](parts)
	case frame.Float32:
		return concatRows[float32](parts)
	case frame.Float64:
		return concatRows[float64](parts)
	case frame.String:
		return concatRows[string](parts)
	}
	return nil, fmt.Errorf("runner: cannot concat dtype %s", parts[0].DType())
}

func concatRows[T frame.Scalar](parts []*frame.Tensor) (*frame.Tensor, error) {
	total := 0
	for _, p := range parts {
		total += p.Len()
	}
	vals := make([]T, 0, total)
	var rows int64
	for _, p := range parts {
		s, err := frame.Data[T](p)
		if err != nil {
			return nil, err
		}
		vals = append(vals, s...)
		rows += p.Dim(0)
	}
	dims := parts[0].Dims()
	dims[0] = rows
	return frame.FromSlice(vals, dims...)
}
