// Copyright 2025 FaceVAE Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the CPU compute backend for FaceVAE.
//
// The backend implements every tensor.Backend operation in pure Go:
// broadcast-aware elementwise arithmetic, matrix multiplication, strided
// and transposed 2D convolutions with their backward kernels, and the
// reduction family. Convolutions parallelize over independent output
// planes.
//
// A single Backend value holds no mutable state and may be shared across
// goroutines.
package cpu
