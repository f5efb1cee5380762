package rowcodec

import (
	"errors"
	"fmt"

	"tsimpute/internal/frame"
)

// ErrMissingInt is wrapped by the ConversionError raised when an absent cell
// is decoded into an int64 column, which has no missing representation.
var ErrMissingInt = errors.New("int64 column cannot represent a missing value")

// ConversionError reports a canonical string that could not be decoded into
// the requested scalar type. It aborts the whole invocation; no partial
// output is kept.
type ConversionError struct {
	Value  string
	Target frame.DType
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Err != nil && e.Value == "" {
		return fmt.Sprintf("convert to %s: %v", e.Target, e.Err)
	}
	return fmt.Sprintf("convert: %q is not a valid %s", e.Value, e.Target)
}

func (e *ConversionError) Unwrap() error { return e.Err }
