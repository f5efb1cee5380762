package batchio

import (
	"fmt"

	"tsimpute/internal/frame"
	"tsimpute/internal/rowcodec"
	"tsimpute/internal/rowstream"
)

// CanonicalRows encodes every row of the batch into canonical form, in
// original order, through the codec specialization the dtype tag selects.
// Fitting consumes rows this way; the kernel encodes on the fly instead and
// never materializes the whole slice.
func CanonicalRows(b *Batch) ([]rowstream.Row, error) {
	switch b.Keys.DType() {
	case frame.Int64:
		return canonicalRows[int64](b)
	case frame.Float32:
		return canonicalRows[float32](b)
	case frame.Float64:
		return canonicalRows[float64](b)
	case frame.String:
		return canonicalRows[string](b)
	}
	return nil, fmt.Errorf("batchio: dtype %s has no row encoding", b.Keys.DType())
}

func canonicalRows[T frame.Element](b *Batch) ([]rowstream.Row, error) {
	ts, err := frame.Data[int64](b.Times)
	if err != nil {
		return nil, err
	}
	kv, err := frame.Data[T](b.Keys)
	if err != nil {
		return nil, err
	}
	dv, err := frame.Data[T](b.Data)
	if err != nil {
		return nil, err
	}

	kw := int(b.Keys.Dim(1))
	cw := int(b.Data.Dim(1))
	rows := make([]rowstream.Row, len(ts))
	for i := range ts {
		row := rowstream.Row{
			Time: ts[i],
			Keys: make([]string, kw),
			Data: make([]rowcodec.Cell, cw),
		}
		for j := 0; j < kw; j++ {
			row.Keys[j] = rowcodec.EncodeKey(kv[i*kw+j])
		}
		for j := 0; j < cw; j++ {
			row.Data[j] = rowcodec.EncodeValue(dv[i*cw+j])
		}
		rows[i] = row
	}
	return rows, nil
}
