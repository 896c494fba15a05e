package cpu

import (
	"fmt"

	"github.com/facevae-ml/facevae/internal/tensor"
)

// MatMul computes the matrix product of two rank-2 tensors.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("cpu: matmul: dtype mismatch: %s vs %s", a.DType(), b.DType()))
	}
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("cpu: matmul: expected rank-2 tensors, got %v and %v", aShape, bShape))
	}
	m, k := aShape[0], aShape[1]
	k2, n := bShape[0], bShape[1]
	if k != k2 {
		panic(fmt.Sprintf("cpu: matmul: inner dimensions do not match: %v x %v", aShape, bShape))
	}

	out := newRaw(tensor.Shape{m, n}, a.DType())
	switch a.DType() {
	case tensor.Float32:
		matmul(out.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n)
	case tensor.Float64:
		matmul(out.AsFloat64(), a.AsFloat64(), b.AsFloat64(), m, k, n)
	default:
		panic(fmt.Sprintf("cpu: matmul: unsupported dtype %s", a.DType()))
	}
	return out
}

// matmul is an ikj-ordered product: the inner loop walks both b and out
// contiguously, which keeps the cache happy without blocking.
func matmul[T floatType](out, a, b []T, m, k, n int) {
	for i := 0; i < m; i++ {
		outRow := out[i*n : (i+1)*n]
		for p := 0; p < k; p++ {
			av := a[i*k+p]
			if av == 0 {
				continue
			}
			bRow := b[p*n : (p+1)*n]
			for j, bv := range bRow {
				outRow[j] += av * bv
			}
		}
	}
}
