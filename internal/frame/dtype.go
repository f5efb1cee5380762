// Package frame holds the minimal typed-buffer model the kernel boundary
// works against: a scalar type tag (DType), a flat dense tensor with a
// dimension vector, and the batch shape checks that run before any row is
// touched.
//
// The tensors here are deliberately small-surface: dense, caller-owned,
// row-major. Columnar/IPC representations live in batchio and are converted
// at the edge.
package frame

import "fmt"

// DType tags the scalar type carried by a Tensor. The tag, not the Go type
// of the backing slice, drives codec and materializer selection.
type DType uint8

const (
	Invalid DType = iota
	Bool
	Uint8
	Int64
	Float32
	Float64
	String
)

var dtypeNames = map[DType]string{
	Invalid: "invalid",
	Bool:    "bool",
	Uint8:   "uint8",
	Int64:   "int64",
	Float32: "float32",
	Float64: "float64",
	String:  "string",
}

func (d DType) String() string {
	if s, ok := dtypeNames[d]; ok {
		return s
	}
	return fmt.Sprintf("dtype(%d)", uint8(d))
}

// ParseDType maps a config-facing name to its tag.
func ParseDType(s string) (DType, error) {
	for d, name := range dtypeNames {
		if s == name && d != Invalid {
			return d, nil
		}
	}
	return Invalid, fmt.Errorf("frame: unknown dtype %q", s)
}

// Scalar is the closed set of Go types a Tensor can carry.
type Scalar interface {
	bool | uint8 | int64 | float32 | float64 | string
}

// Element is the subset of Scalar admitted for key/data columns. Times are
// always int64 and the synthesized flag is always bool; Element is what the
// batch's T may range over.
type Element interface {
	int64 | float32 | float64 | string
}

// DTypeOf reports the tag for a Scalar instantiation.
func DTypeOf[T Scalar]() DType {
	var z T
	switch any(z).(type) {
	case bool:
		return Bool
	case uint8:
		return Uint8
	case int64:
		return Int64
	case float32:
		return Float32
	case float64:
		return Float64
	case string:
		return String
	}
	return Invalid
}
