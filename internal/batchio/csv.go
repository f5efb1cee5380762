package batchio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"tsimpute/internal/frame"
	"tsimpute/internal/rowcodec"
)

// ReadCSV decodes one batch from CSV. The first line is the header; header
// cells and spec names are matched after NormalizeHeader, so accents, BOMs,
// and case differences do not matter. An empty cell is a missing value.
func ReadCSV(r io.Reader, spec Spec) (*Batch, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	switch spec.DType {
	case frame.Int64:
		return readCSV[int64](r, spec)
	case frame.Float32:
		return readCSV[float32](r, spec)
	case frame.Float64:
		return readCSV[float64](r, spec)
	default:
		return readCSV[string](r, spec)
	}
}

func readCSV[T frame.Element](r io.Reader, spec Spec) (*Batch, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1
	if spec.Comma != 0 {
		cr.Comma = spec.Comma
	}

	hdr, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("batchio: read header: %w", err)
	}
	byName, err := columnIndex(hdr)
	if err != nil {
		return nil, err
	}
	timeIx, keyIx, dataIx, err := resolveColumns(byName, spec)
	if err != nil {
		return nil, err
	}
	maxIx := timeIx
	for _, ix := range keyIx {
		if ix > maxIx {
			maxIx = ix
		}
	}
	for _, ix := range dataIx {
		if ix > maxIx {
			maxIx = ix
		}
	}

	var (
		times []int64
		keys  []T
		data  []T
	)
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("batchio: line %d: %w", line, err)
		}
		if len(rec) <= maxIx {
			return nil, fmt.Errorf("batchio: line %d: %d fields, need %d", line, len(rec), maxIx+1)
		}

		ts, err := parseTime(rec[timeIx])
		if err != nil {
			return nil, fmt.Errorf("batchio: line %d: %w", line, err)
		}
		times = append(times, ts)

		for i, ix := range keyIx {
			v, err := rowcodec.DecodeKey[T](rec[ix])
			if err != nil {
				return nil, fmt.Errorf("batchio: line %d, key column %q: %w", line, spec.KeyColumns[i], err)
			}
			keys = append(keys, v)
		}
		for i, ix := range dataIx {
			cell := rowcodec.Absent()
			if rec[ix] != "" {
				cell = rowcodec.Filled(rec[ix])
			}
			v, err := rowcodec.DecodeValue[T](cell)
			if err != nil {
				return nil, fmt.Errorf("batchio: line %d, data column %q: %w", line, spec.DataColumns[i], err)
			}
			data = append(data, v)
		}
	}

	return newBatch(spec, times, keys, data)
}

// parseTime accepts epoch seconds or RFC 3339.
func parseTime(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Unix(), nil
	}
	return 0, fmt.Errorf("time %q is neither epoch seconds nor RFC 3339", s)
}

// WriteCSV renders a result with a fixed "synthesized" flag column followed
// by time, keys, and data under their batch names. Absent values become
// empty cells, so the file reads back through ReadCSV.
func WriteCSV(w io.Writer, res *Result) error {
	switch res.Keys.DType() {
	case frame.Int64:
		return writeCSV[int64](w, res)
	case frame.Float32:
		return writeCSV[float32](w, res)
	case frame.Float64:
		return writeCSV[float64](w, res)
	case frame.String:
		return writeCSV[string](w, res)
	}
	return fmt.Errorf("batchio: dtype %s not writable", res.Keys.DType())
}

func writeCSV[T frame.Element](w io.Writer, res *Result) error {
	synth, err := frame.Data[bool](res.Synth)
	if err != nil {
		return err
	}
	times, err := frame.Data[int64](res.Times)
	if err != nil {
		return err
	}
	keys, err := frame.Data[T](res.Keys)
	if err != nil {
		return err
	}
	data, err := frame.Data[T](res.Data)
	if err != nil {
		return err
	}

	kw := int(res.Keys.Dim(1))
	cw := int(res.Data.Dim(1))
	timeName, keyNames, dataNames := res.ColumnNames()

	out := csv.NewWriter(w)
	hdr := make([]string, 0, 2+kw+cw)
	hdr = append(hdr, "synthesized", timeName)
	hdr = append(hdr, keyNames...)
	hdr = append(hdr, dataNames...)
	if err := out.Write(hdr); err != nil {
		return fmt.Errorf("batchio: write header: %w", err)
	}

	rec := make([]string, 0, 2+kw+cw)
	for i := range synth {
		rec = rec[:0]
		rec = append(rec, strconv.FormatBool(synth[i]), strconv.FormatInt(times[i], 10))
		for j := 0; j < kw; j++ {
			rec = append(rec, rowcodec.EncodeKey(keys[i*kw+j]))
		}
		for j := 0; j < cw; j++ {
			rec = append(rec, rowcodec.EncodeValue(data[i*cw+j]).Value)
		}
		if err := out.Write(rec); err != nil {
			return fmt.Errorf("batchio: write row %d: %w", i, err)
		}
	}
	out.Flush()
	return out.Error()
}
