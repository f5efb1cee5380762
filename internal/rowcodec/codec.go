package rowcodec

import (
	"math"
	"strconv"

	"tsimpute/internal/frame"
)

// EncodeKey renders a key scalar to its canonical string. Keys are never
// missing, so the result is a bare string: integers in base 10, floats in
// shortest round-trip form, strings unchanged.
func EncodeKey[T frame.Element](v T) string {
	switch x := any(v).(type) {
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	}
	panic("rowcodec: unreachable scalar type")
}

// Missing reports whether v denotes an absent value under the missing-data
// convention: NaN for float columns, "" for string columns. int64 columns
// have no in-band missing marker, so an int64 is never missing.
func Missing[T frame.Element](v T) bool {
	switch x := any(v).(type) {
	case float32:
		return math.IsNaN(float64(x))
	case float64:
		return math.IsNaN(x)
	case string:
		return x == ""
	}
	return false
}

// EncodeValue renders a data scalar to a Cell, applying the missing-value
// convention: NaN (float columns) and "" (string columns) become absent.
func EncodeValue[T frame.Element](v T) Cell {
	if Missing(v) {
		return Absent()
	}
	return Filled(EncodeKey(v))
}

// DecodeKey parses a canonical key string back into T. The parse is strict:
// the entire string must be consumed, and any leftover suffix fails with a
// *ConversionError.
func DecodeKey[T frame.Element](s string) (T, error) {
	var zero T
	switch any(zero).(type) {
	case int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return zero, &ConversionError{Value: s, Target: frame.Int64, Err: err}
		}
		return any(n).(T), nil
	case float32:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return zero, &ConversionError{Value: s, Target: frame.Float32, Err: err}
		}
		return any(float32(f)).(T), nil
	case float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return zero, &ConversionError{Value: s, Target: frame.Float64, Err: err}
		}
		return any(f).(T), nil
	case string:
		return any(s).(T), nil
	}
	panic("rowcodec: unreachable scalar type")
}

// DecodeValue parses a data Cell back into T. An absent Cell decodes to NaN
// for float columns and "" for string columns; int64 columns cannot carry a
// missing value and fail with a *ConversionError wrapping ErrMissingInt.
func DecodeValue[T frame.Element](c Cell) (T, error) {
	var zero T
	if !c.Present {
		switch any(zero).(type) {
		case float32:
			return any(float32(math.NaN())).(T), nil
		case float64:
			return any(math.NaN()).(T), nil
		case string:
			return zero, nil
		case int64:
			return zero, &ConversionError{Target: frame.Int64, Err: ErrMissingInt}
		}
		panic("rowcodec: unreachable scalar type")
	}
	return DecodeKey[T](c.Value)
}
