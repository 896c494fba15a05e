package tensor

import "fmt"

// Shape holds tensor dimensions, outermost first. Image batches are
// NCHW throughout the codebase.
type Shape []int

// NumElements returns the element count; a rank-0 shape is a scalar
// with one element.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate rejects non-positive dimensions.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal reports whether both shapes have the same rank and dimensions.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides returns row-major strides: stride[i] is the product of
// the dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}
	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// BroadcastShapes aligns two shapes under NumPy broadcasting: trailing
// dimensions must match or be 1, missing leading dimensions count as 1.
// It returns the result shape and whether any stretching is needed, so
// elementwise kernels can keep a fast path for already-matching shapes.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	rank := max(len(a), len(b))
	out := make(Shape, rank)
	stretched := false

	for i := 0; i < rank; i++ {
		da, db := 1, 1
		if j := len(a) - 1 - i; j >= 0 {
			da = a[j]
		}
		if j := len(b) - 1 - i; j >= 0 {
			db = b[j]
		}

		switch {
		case da == db:
			out[rank-1-i] = da
		case da == 1:
			out[rank-1-i] = db
			stretched = true
		case db == 1:
			out[rank-1-i] = da
			stretched = true
		default:
			return nil, false, fmt.Errorf("cannot broadcast %v with %v (dimension %d: %d vs %d)",
				a, b, rank-1-i, da, db)
		}
	}
	return out, stretched, nil
}
