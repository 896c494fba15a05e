package cpu

import (
	"fmt"

	"github.com/facevae-ml/facevae/internal/tensor"
)

type binOp int

const (
	opAdd binOp = iota
	opSub
	opMul
	opDiv
)

func (op binOp) String() string {
	switch op {
	case opAdd:
		return "add"
	case opSub:
		return "sub"
	case opMul:
		return "mul"
	case opDiv:
		return "div"
	default:
		return "unknown"
	}
}

type floatType interface {
	~float32 | ~float64
}

func binKernel[T floatType](op binOp) func(T, T) T {
	switch op {
	case opAdd:
		return func(x, y T) T { return x + y }
	case opSub:
		return func(x, y T) T { return x - y }
	case opMul:
		return func(x, y T) T { return x * y }
	case opDiv:
		return func(x, y T) T { return x / y }
	default:
		panic(fmt.Sprintf("cpu: unknown binary op %d", op))
	}
}

// applyBinaryInplace runs op over equal-shaped operands, writing into a.
func applyBinaryInplace(a, b *tensor.RawTensor, op binOp) {
	switch a.DType() {
	case tensor.Float32:
		ewInplace(a.AsFloat32(), b.AsFloat32(), binKernel[float32](op))
	case tensor.Float64:
		ewInplace(a.AsFloat64(), b.AsFloat64(), binKernel[float64](op))
	default:
		panic(fmt.Sprintf("cpu: %s: unsupported dtype %s", op, a.DType()))
	}
}

// applyBinary runs op over equal-shaped operands into a fresh output.
func applyBinary(out, a, b *tensor.RawTensor, op binOp) {
	switch a.DType() {
	case tensor.Float32:
		ew(out.AsFloat32(), a.AsFloat32(), b.AsFloat32(), binKernel[float32](op))
	case tensor.Float64:
		ew(out.AsFloat64(), a.AsFloat64(), b.AsFloat64(), binKernel[float64](op))
	default:
		panic(fmt.Sprintf("cpu: %s: unsupported dtype %s", op, a.DType()))
	}
}

// applyBinaryBroadcast runs op over operands whose shapes broadcast to
// out's shape.
func applyBinaryBroadcast(out, a, b *tensor.RawTensor, op binOp) {
	switch a.DType() {
	case tensor.Float32:
		ewBroadcast(out.AsFloat32(), a.AsFloat32(), b.AsFloat32(),
			out.Shape(), a.Shape(), b.Shape(), binKernel[float32](op))
	case tensor.Float64:
		ewBroadcast(out.AsFloat64(), a.AsFloat64(), b.AsFloat64(),
			out.Shape(), a.Shape(), b.Shape(), binKernel[float64](op))
	default:
		panic(fmt.Sprintf("cpu: %s: unsupported dtype %s", op, a.DType()))
	}
}

func ewInplace[T floatType](a, b []T, f func(T, T) T) {
	for i := range a {
		a[i] = f(a[i], b[i])
	}
}

func ew[T floatType](out, a, b []T, f func(T, T) T) {
	for i := range out {
		out[i] = f(a[i], b[i])
	}
}

// ewBroadcast iterates the output coordinates, mapping each back to the
// (possibly lower-rank or size-1) source positions.
func ewBroadcast[T floatType](out, a, b []T, outShape, aShape, bShape tensor.Shape, f func(T, T) T) {
	rank := len(outShape)
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)
	coords := make([]int, rank)
	for i := range out {
		ai, bi := 0, 0
		for d := 0; d < rank; d++ {
			ai += coords[d] * aStrides[d]
			bi += coords[d] * bStrides[d]
		}
		out[i] = f(a[ai], b[bi])
		for d := rank - 1; d >= 0; d-- {
			coords[d]++
			if coords[d] < outShape[d] {
				break
			}
			coords[d] = 0
		}
	}
}

// broadcastStrides aligns shape to the right of outShape and returns
// per-output-axis strides into the source buffer. Broadcast axes (missing
// or size 1) get stride 0 so the same source element repeats.
func broadcastStrides(shape, outShape tensor.Shape) []int {
	rank := len(outShape)
	strides := make([]int, rank)
	srcStrides := shape.ComputeStrides()
	offset := rank - len(shape)
	for d := 0; d < rank; d++ {
		sd := d - offset
		if sd < 0 || shape[sd] == 1 {
			strides[d] = 0
		} else {
			strides[d] = srcStrides[sd]
		}
	}
	return strides
}
