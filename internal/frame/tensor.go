package frame

import "fmt"

// Tensor is a dense, row-major buffer with a dtype tag and a dimension
// vector. The backing slice is typed; the tag records which instantiation it
// is so callers can dispatch without reflection.
//
// Tensors are read-only by convention once handed to a kernel; nothing here
// enforces that, matching the caller-owns-buffers contract.
type Tensor struct {
	dt   DType
	dims []int64
	data any // []T for the T matching dt
}

// New allocates a zeroed tensor of the given dimensions.
func New[T Scalar](dims ...int64) (*Tensor, error) {
	n, err := checkDims(dims)
	if err != nil {
		return nil, err
	}
	return &Tensor{dt: DTypeOf[T](), dims: append([]int64(nil), dims...), data: make([]T, n)}, nil
}

// FromSlice wraps an existing flat slice. len(vals) must equal the product
// of dims. The tensor aliases vals; it does not copy.
func FromSlice[T Scalar](vals []T, dims ...int64) (*Tensor, error) {
	n, err := checkDims(dims)
	if err != nil {
		return nil, err
	}
	if int64(len(vals)) != n {
		return nil, fmt.Errorf("frame: %d values for dims %v (want %d)", len(vals), dims, n)
	}
	return &Tensor{dt: DTypeOf[T](), dims: append([]int64(nil), dims...), data: vals}, nil
}

func checkDims(dims []int64) (int64, error) {
	n := int64(1)
	for i, d := range dims {
		if d < 0 {
			return 0, fmt.Errorf("frame: negative dim %d at axis %d", d, i)
		}
		n *= d
	}
	return n, nil
}

// DType reports the scalar tag.
func (t *Tensor) DType() DType { return t.dt }

// Rank reports the number of dimensions.
func (t *Tensor) Rank() int { return len(t.dims) }

// Dim reports the size of axis i.
func (t *Tensor) Dim(i int) int64 { return t.dims[i] }

// Dims returns a copy of the dimension vector.
func (t *Tensor) Dims() []int64 { return append([]int64(nil), t.dims...) }

// Len reports the flat element count.
func (t *Tensor) Len() int {
	n := int64(1)
	for _, d := range t.dims {
		n *= d
	}
	return int(n)
}

// Data returns the backing slice for a tensor whose tag matches T.
func Data[T Scalar](t *Tensor) ([]T, error) {
	s, ok := t.data.([]T)
	if !ok {
		return nil, fmt.Errorf("frame: tensor holds %s, requested %s", t.dt, DTypeOf[T]())
	}
	return s, nil
}
