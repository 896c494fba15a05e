// Copyright 2025 FaceVAE Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/facevae-ml/facevae/internal/tensor"
)

// Type aliases for the public API.

// DType is a constraint for tensor element types.
// Supported types: float32, float64, int32, uint8.
type DType = tensor.DType

// DataType represents the runtime data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Uint8   DataType = tensor.Uint8
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU Device = tensor.CPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Backend is the interface compute backends implement. It is defined in
// backend.go.

// Tensor is the high-level generic tensor. T is the element type and B
// the compute backend.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// RawTensor is the untyped tensor underlying every Tensor. Backends and
// autodiff operate on RawTensors directly.
type RawTensor = tensor.RawTensor

// NewRaw allocates an untyped tensor with the given shape, data type and
// device.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// New wraps a RawTensor in a typed Tensor bound to a backend.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T](raw, b)
}

// FromSlice builds a tensor from a flat slice. The slice length must
// match the shape's element count.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice(data, shape, b)
}

// Zeros returns a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T](shape, b)
}

// Ones returns a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T](shape, b)
}

// Full returns a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full(shape, value, b)
}

// Randn returns a tensor of standard normal samples drawn from rng.
func Randn[T DType, B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[T, B] {
	return tensor.Randn[T](shape, rng, b)
}

// Rand returns a tensor of uniform samples in [0, 1) drawn from rng.
func Rand[T DType, B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[T, B] {
	return tensor.Rand[T](shape, rng, b)
}

// BroadcastShapes implements NumPy-style broadcasting rules. It returns
// the broadcast shape, whether broadcasting is needed, and an error when
// the shapes are incompatible.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
