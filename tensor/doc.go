// Copyright 2025 FaceVAE Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor operations for FaceVAE.
//
// # Overview
//
// Tensors are the fundamental data structure in FaceVAE. This package
// provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - NumPy-style broadcasting
//   - Copy-on-write buffers with in-place fast paths
//   - A backend abstraction so compute stays pluggable
//
// # Basic Usage
//
//	import (
//	    "github.com/facevae-ml/facevae/backend/cpu"
//	    "github.com/facevae-ml/facevae/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//
//	    z := x.Add(y)
//	    fmt.Println(z.Data())
//	}
package tensor
