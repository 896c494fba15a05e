package cpu

import (
	"fmt"

	"github.com/facevae-ml/facevae/internal/parallel"
	"github.com/facevae-ml/facevae/internal/tensor"
)

// CPUBackend executes tensor operations on the host CPU. It holds no
// mutable state; a single instance can be shared by any number of
// tensors and goroutines.
type CPUBackend struct {
	par parallel.Config
}

// New returns a CPU backend with a worker pool sized from the CPU count.
func New() *CPUBackend {
	return &CPUBackend{par: parallel.DefaultConfig()}
}

func (cpu *CPUBackend) Name() string {
	return "cpu"
}

func (cpu *CPUBackend) Device() tensor.Device {
	return tensor.CPU
}

func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp(a, b, opAdd)
}

func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp(a, b, opSub)
}

func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp(a, b, opMul)
}

func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp(a, b, opDiv)
}

// binaryOp applies an elementwise operation with NumPy-style broadcasting.
// When the left operand uniquely owns its buffer and no broadcast is
// needed, the operation runs in place to avoid an allocation.
func (cpu *CPUBackend) binaryOp(a, b *tensor.RawTensor, op binOp) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("cpu: dtype mismatch in %s: %s vs %s", op, a.DType(), b.DType()))
	}
	outShape, broadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("cpu: %s: %v", op, err))
	}

	if !broadcast && a.IsUnique() {
		applyBinaryInplace(a, b, op)
		return a
	}

	out := newRaw(outShape, a.DType())
	if broadcast {
		applyBinaryBroadcast(out, a, b, op)
	} else {
		applyBinary(out, a, b, op)
	}
	return out
}

// Reshape returns a view with a new shape when the buffer is shared, or
// mutates in place when this tensor owns it. Element count must match.
func (cpu *CPUBackend) Reshape(a *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("cpu: reshape: %v", err))
	}
	if shape.NumElements() != a.Shape().NumElements() {
		panic(fmt.Sprintf("cpu: reshape: cannot reshape %v (%d elements) to %v (%d elements)",
			a.Shape(), a.Shape().NumElements(), shape, shape.NumElements()))
	}
	out := a.Clone()
	out.SetShape(shape)
	return out
}

// Transpose permutes the axes of a. An empty permutation reverses them.
func (cpu *CPUBackend) Transpose(a *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	rank := len(a.Shape())
	if len(axes) == 0 {
		axes = make([]int, rank)
		for i := range axes {
			axes[i] = rank - 1 - i
		}
	}
	if len(axes) != rank {
		panic(fmt.Sprintf("cpu: transpose: got %d axes for rank-%d tensor", len(axes), rank))
	}
	seen := make([]bool, rank)
	outShape := make(tensor.Shape, rank)
	for i, ax := range axes {
		if ax < 0 || ax >= rank || seen[ax] {
			panic(fmt.Sprintf("cpu: transpose: invalid permutation %v for rank %d", axes, rank))
		}
		seen[ax] = true
		outShape[i] = a.Shape()[ax]
	}

	out := newRaw(outShape, a.DType())
	switch a.DType() {
	case tensor.Float32:
		permuteCopy(out.AsFloat32(), a.AsFloat32(), a.Shape(), outShape, axes)
	case tensor.Float64:
		permuteCopy(out.AsFloat64(), a.AsFloat64(), a.Shape(), outShape, axes)
	case tensor.Int32:
		permuteCopy(out.AsInt32(), a.AsInt32(), a.Shape(), outShape, axes)
	case tensor.Uint8:
		permuteCopy(out.AsUint8(), a.AsUint8(), a.Shape(), outShape, axes)
	default:
		panic(fmt.Sprintf("cpu: transpose: unsupported dtype %s", a.DType()))
	}
	return out
}

// permuteCopy copies src into dst with axes permuted. dst index i maps to
// src axis axes[i].
func permuteCopy[T tensor.DType](dst, src []T, srcShape, dstShape tensor.Shape, axes []int) {
	srcStrides := srcShape.ComputeStrides()
	rank := len(srcShape)
	coords := make([]int, rank)
	for di := range dst {
		si := 0
		for i := 0; i < rank; i++ {
			si += coords[i] * srcStrides[axes[i]]
		}
		dst[di] = src[si]
		for i := rank - 1; i >= 0; i-- {
			coords[i]++
			if coords[i] < dstShape[i] {
				break
			}
			coords[i] = 0
		}
	}
}
