package tsimputer

import (
	"fmt"

	"tsimpute/internal/frame"
	"tsimpute/internal/rowcodec"
	"tsimpute/internal/rowstream"
)

// materialize encodes the accumulated output sequence into the four typed
// output tensors, sized by the sequence length. Row i of every output comes
// from accumulator entry i; nothing is reordered. Each row's key and data
// arities are re-validated against the batch widths before any of its cells
// decode. The tensors are returned only when every row materialized, so a
// failure publishes nothing.
func materialize[T frame.Element](rows []rowstream.OutputRow, kWidth, cWidth int) ([]*frame.Tensor, error) {
	n := len(rows)
	synth := make([]bool, n)
	times := make([]int64, n)
	keyVals := make([]T, n*kWidth)
	dataVals := make([]T, n*cWidth)

	for i, r := range rows {
		synth[i] = r.Synthesized
		times[i] = r.Time

		if got := len(r.Keys); got != kWidth {
			return nil, &ConsistencyError{Row: i, Field: "keys", Got: got, Want: kWidth}
		}
		if got := len(r.Data); got != cWidth {
			return nil, &ConsistencyError{Row: i, Field: "data", Got: got, Want: cWidth}
		}

		for j, ks := range r.Keys {
			v, err := rowcodec.DecodeKey[T](ks)
			if err != nil {
				return nil, fmt.Errorf("output row %d key %d: %w", i, j, err)
			}
			keyVals[i*kWidth+j] = v
		}
		for j, c := range r.Data {
			v, err := rowcodec.DecodeValue[T](c)
			if err != nil {
				return nil, fmt.Errorf("output row %d value %d: %w", i, j, err)
			}
			dataVals[i*cWidth+j] = v
		}
	}

	synthT, err := frame.FromSlice(synth, int64(n))
	if err != nil {
		return nil, err
	}
	timesT, err := frame.FromSlice(times, int64(n))
	if err != nil {
		return nil, err
	}
	keysT, err := frame.FromSlice(keyVals, int64(n), int64(kWidth))
	if err != nil {
		return nil, err
	}
	dataT, err := frame.FromSlice(dataVals, int64(n), int64(cWidth))
	if err != nil {
		return nil, err
	}
	return []*frame.Tensor{synthT, timesT, keysT, dataT}, nil
}
