// Copyright 2025 FaceVAE Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and building blocks.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, Conv2D, ConvTranspose2D, BatchNorm2D, Dropout, Flatten
//   - Activations: ReLU, Sigmoid, Tanh
//   - Utilities: Sequential, Module interface, Parameter
//   - Initialization: Xavier
//
// # Basic Usage
//
//	import (
//	    "github.com/facevae-ml/facevae/autodiff"
//	    "github.com/facevae-ml/facevae/backend/cpu"
//	    "github.com/facevae-ml/facevae/nn"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//	    rng := rand.New(rand.NewSource(42))
//
//	    model := nn.NewSequential(
//	        nn.NewConv2D(3, 32, 3, 2, 1, rng, backend),
//	        nn.NewReLU[*autodiff.Backend[*cpu.Backend]](),
//	        nn.NewFlatten[*autodiff.Backend[*cpu.Backend]](),
//	    )
//	    _ = model
//	}
//
// The activation, dropout and batch normalization layers require a
// backend that implements their fused operations; wrapping any backend
// with autodiff.New provides them.
package nn
