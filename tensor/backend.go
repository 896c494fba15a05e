// Copyright 2025 FaceVAE Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/facevae-ml/facevae/internal/tensor"
)

// Backend is the interface every compute backend implements. It covers
// elementwise arithmetic, matrix multiplication, the convolution family,
// shape manipulation and reductions over RawTensors.
//
// The CPU implementation lives in backend/cpu; wrapping any backend with
// autodiff.New adds gradient recording on top of it.
type Backend = tensor.Backend
