// Copyright 2025 FaceVAE Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/facevae-ml/facevae/internal/backend/cpu"
	"github.com/facevae-ml/facevae/tensor"
)

// Backend is the CPU backend implementation.
//
// It provides pure Go implementations of all tensor operations, with the
// convolution kernels spread across a worker pool sized from the CPU
// count.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/facevae-ml/facevae/backend/cpu"
//	    "github.com/facevae-ml/facevae/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	}
func New() *Backend {
	return internalcpu.New()
}
