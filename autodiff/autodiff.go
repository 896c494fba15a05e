// Copyright 2025 FaceVAE Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// The package wraps any compute backend with a gradient tape: tensor
// operations executed through the wrapper are recorded, and a single
// backward pass over the tape produces gradients for every recorded
// input. The fused variational operations (reparameterized sampling,
// image binary cross-entropy, Gaussian KL divergence, batch
// normalization, dropout) are recorded with analytic backward kernels.
//
// Example:
//
//	import (
//	    "github.com/facevae-ml/facevae/autodiff"
//	    "github.com/facevae-ml/facevae/backend/cpu"
//	    "github.com/facevae-ml/facevae/tensor"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//
//	    backend.Tape().StartRecording()
//	    x := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    y := x.Mul(x)
//
//	    grads := autodiff.Backward(y, backend)
//	    _ = grads[x.Raw()]
//	}
package autodiff

import (
	"github.com/facevae-ml/facevae/internal/autodiff"
	"github.com/facevae-ml/facevae/internal/tensor"
)

// Backend is the autodiff-enabled backend decorator.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New wraps backend with gradient recording.
//
// Example:
//
//	base := cpu.New()
//	backend := autodiff.New(base)
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// BackwardCapable is the interface of backends that can run a backward
// pass. The autodiff Backend implements it.
type BackwardCapable = autodiff.BackwardCapable

// Backward seeds the output gradient with ones and walks the tape in
// reverse, returning a map from recorded RawTensors to their gradients.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}
