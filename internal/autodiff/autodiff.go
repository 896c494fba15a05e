// Package autodiff implements reverse-mode automatic differentiation as
// a backend decorator.
//
// AutodiffBackend wraps any tensor.Backend and records every operation
// it executes onto a GradientTape. Walking the tape backwards from a
// scalar loss yields the gradient of every tensor that participated in
// the forward pass.
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	// ... forward pass, loss ...
//	grads := backend.Tape().Backward(seed, backend)
package autodiff

import (
	"github.com/facevae-ml/facevae/internal/autodiff/ops"
	"github.com/facevae-ml/facevae/internal/tensor"
)

// AutodiffBackend decorates a Backend with gradient tracking. It
// implements tensor.Backend itself, so tensors built on it record their
// operations transparently.
type AutodiffBackend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New wraps a backend with a fresh gradient tape.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape exposes the gradient tape for recording control and backward
// passes.
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

func (b *AutodiffBackend[B]) Name() string {
	return "autodiff(" + b.inner.Name() + ")"
}

func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// Add performs elementwise addition and records it.
//
// ForceNonUnique pins the operands for the duration of the call: an
// inplace fast path in the inner backend would overwrite values the
// backward pass still needs.
func (b *AutodiffBackend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	out := b.inner.Add(x, y)
	b.tape.Record(ops.NewAddOp(x, y, out))
	return out
}

// Sub performs elementwise subtraction and records it.
func (b *AutodiffBackend[B]) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	out := b.inner.Sub(x, y)
	b.tape.Record(ops.NewSubOp(x, y, out))
	return out
}

// Mul performs elementwise multiplication and records it.
func (b *AutodiffBackend[B]) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	out := b.inner.Mul(x, y)
	b.tape.Record(ops.NewMulOp(x, y, out))
	return out
}

// Div performs elementwise division and records it.
func (b *AutodiffBackend[B]) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	out := b.inner.Div(x, y)
	b.tape.Record(ops.NewDivOp(x, y, out))
	return out
}

// MatMul performs matrix multiplication and records it.
func (b *AutodiffBackend[B]) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	out := b.inner.MatMul(x, y)
	b.tape.Record(ops.NewMatMulOp(x, y, out))
	return out
}

// Conv2D performs a 2D convolution and records it.
func (b *AutodiffBackend[B]) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	defer input.ForceNonUnique()()
	defer kernel.ForceNonUnique()()
	out := b.inner.Conv2D(input, kernel, stride, padding)
	b.tape.Record(ops.NewConv2DOp(input, kernel, out, stride, padding))
	return out
}

// ConvTranspose2D performs a transposed convolution and records it.
func (b *AutodiffBackend[B]) ConvTranspose2D(input, kernel *tensor.RawTensor, stride, padding, outputPadding int) *tensor.RawTensor {
	defer input.ForceNonUnique()()
	defer kernel.ForceNonUnique()()
	out := b.inner.ConvTranspose2D(input, kernel, stride, padding, outputPadding)
	b.tape.Record(ops.NewConvTranspose2DOp(input, kernel, out, stride, padding))
	return out
}

// Reshape changes a tensor's shape and records it so gradients reach the
// pre-reshape tensor (conv biases viewed as [1,C,1,1] depend on this).
func (b *AutodiffBackend[B]) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	defer t.ForceNonUnique()()
	out := b.inner.Reshape(t, newShape)
	b.tape.Record(ops.NewReshapeOp(t, out))
	return out
}

// Transpose permutes axes and records it.
func (b *AutodiffBackend[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	defer t.ForceNonUnique()()
	out := b.inner.Transpose(t, axes...)
	b.tape.Record(ops.NewTransposeOp(t, out, axes))
	return out
}

// Exp computes e^x elementwise and records it.
func (b *AutodiffBackend[B]) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Exp(x)
	b.tape.Record(ops.NewExpOp(x, out))
	return out
}

// Log computes ln(x) elementwise and records it.
func (b *AutodiffBackend[B]) Log(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Log(x)
	b.tape.Record(ops.NewLogOp(x, out))
	return out
}

// Sqrt computes √x elementwise and records it.
func (b *AutodiffBackend[B]) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Sqrt(x)
	b.tape.Record(ops.NewSqrtOp(x, out))
	return out
}

// Sum reduces all elements and records it.
func (b *AutodiffBackend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.Sum(x)
	b.tape.Record(ops.NewSumOp(x, out))
	return out
}

// SumDim sums along one axis and records it.
func (b *AutodiffBackend[B]) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.SumDim(x, dim, keepDim)
	b.tape.Record(ops.NewSumDimOp(x, out, dim, keepDim))
	return out
}

// MeanDim averages along one axis and records it.
func (b *AutodiffBackend[B]) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	out := b.inner.MeanDim(x, dim, keepDim)
	b.tape.Record(ops.NewMeanDimOp(x, out, dim, keepDim))
	return out
}

// MulScalar is not recorded; scalar arithmetic appears only in gradient
// math and optimizer updates, outside the differentiated graph.
func (b *AutodiffBackend[B]) MulScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	return b.inner.MulScalar(x, s)
}

// AddScalar is not recorded, same as MulScalar.
func (b *AutodiffBackend[B]) AddScalar(x *tensor.RawTensor, s float64) *tensor.RawTensor {
	return b.inner.AddScalar(x, s)
}

// Conv2DInputBackward delegates to the inner backend; gradient kernels
// are never themselves differentiated.
func (b *AutodiffBackend[B]) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.inner.Conv2DInputBackward(input, kernel, grad, stride, padding)
}

func (b *AutodiffBackend[B]) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.inner.Conv2DKernelBackward(input, kernel, grad, stride, padding)
}

func (b *AutodiffBackend[B]) ConvTranspose2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.inner.ConvTranspose2DInputBackward(input, kernel, grad, stride, padding)
}

func (b *AutodiffBackend[B]) ConvTranspose2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.inner.ConvTranspose2DKernelBackward(input, kernel, grad, stride, padding)
}
