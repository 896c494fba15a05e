// Copyright 2025 FaceVAE Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides gradient descent optimizers.
//
// Optimizers consume the gradient map produced by a backward pass and
// update parameters in place:
//
//	grads := backend.Tape().Backward(seed, backend)
//	optimizer.Step(grads)
//	optimizer.ZeroGrad()
//
// Available optimizers: SGD (with momentum) and Adam.
package optim
