package cpu

import (
	"fmt"

	"github.com/facevae-ml/facevae/internal/tensor"
)

// Sum reduces all elements to a single-element tensor of shape [1].
func (cpu *CPUBackend) Sum(a *tensor.RawTensor) *tensor.RawTensor {
	out := newRaw(tensor.Shape{1}, a.DType())
	switch a.DType() {
	case tensor.Float32:
		var acc float32
		for _, v := range a.AsFloat32() {
			acc += v
		}
		out.AsFloat32()[0] = acc
	case tensor.Float64:
		var acc float64
		for _, v := range a.AsFloat64() {
			acc += v
		}
		out.AsFloat64()[0] = acc
	default:
		panic(fmt.Sprintf("cpu: sum: unsupported dtype %s", a.DType()))
	}
	return out
}

// SumDim sums along a single dimension. With keepDim the reduced axis
// stays as size 1, otherwise it is dropped.
func (cpu *CPUBackend) SumDim(a *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim(a, dim, keepDim, false)
}

// MeanDim averages along a single dimension.
func (cpu *CPUBackend) MeanDim(a *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim(a, dim, keepDim, true)
}

func (cpu *CPUBackend) reduceDim(a *tensor.RawTensor, dim int, keepDim, mean bool) *tensor.RawTensor {
	shape := a.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("cpu: reduce: dim %d out of range for shape %v", dim, shape))
	}

	outShape := make(tensor.Shape, 0, len(shape))
	for d, s := range shape {
		switch {
		case d != dim:
			outShape = append(outShape, s)
		case keepDim:
			outShape = append(outShape, 1)
		}
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}

	// Split the index space into [outer, n, inner] around the reduced axis.
	outer, inner := 1, 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}
	n := shape[dim]

	out := newRaw(outShape, a.DType())
	switch a.DType() {
	case tensor.Float32:
		reduceAxis(out.AsFloat32(), a.AsFloat32(), outer, n, inner, mean)
	case tensor.Float64:
		reduceAxis(out.AsFloat64(), a.AsFloat64(), outer, n, inner, mean)
	default:
		panic(fmt.Sprintf("cpu: reduce: unsupported dtype %s", a.DType()))
	}
	return out
}

func reduceAxis[T floatType](out, src []T, outer, n, inner int, mean bool) {
	for o := 0; o < outer; o++ {
		base := o * n * inner
		outBase := o * inner
		for i := 0; i < inner; i++ {
			var acc T
			for j := 0; j < n; j++ {
				acc += src[base+j*inner+i]
			}
			if mean {
				acc /= T(n)
			}
			out[outBase+i] = acc
		}
	}
}
