// Copyright 2025 FaceVAE Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/facevae-ml/facevae/internal/nn"
	"github.com/facevae-ml/facevae/internal/tensor"
)

// Module is the common interface for all neural network modules.
type Module[B tensor.Backend] = nn.Module[B]

// TrainableModule is implemented by modules whose behavior differs
// between training and evaluation, such as Dropout and BatchNorm2D.
type TrainableModule = nn.TrainableModule

// Parameter represents a trainable parameter in a neural network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier weights drawn from rng.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(14400, 16, rng, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, rng, backend)
}

// Conv2D represents a strided 2D convolutional layer.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a new 2D convolutional layer with a square kernel.
//
// Example:
//
//	conv := nn.NewConv2D(3, 32, 3, 2, 1, rng, backend) // 3→32 channels, 3x3 kernel, stride 2, padding 1
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding int, rng *rand.Rand, backend B) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelSize, stride, padding, rng, backend)
}

// ConvTranspose2D represents a transposed (fractionally strided) 2D
// convolutional layer.
type ConvTranspose2D[B tensor.Backend] = nn.ConvTranspose2D[B]

// NewConvTranspose2D creates a new transposed convolutional layer.
// outputPadding extends the bottom/right edge of the output so the layer
// can exactly invert a strided convolution.
func NewConvTranspose2D[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding, outputPadding int, rng *rand.Rand, backend B) *ConvTranspose2D[B] {
	return nn.NewConvTranspose2D(inChannels, outChannels, kernelSize, stride, padding, outputPadding, rng, backend)
}

// BatchNorm2D normalizes NCHW activations per channel, tracking running
// statistics for evaluation mode.
type BatchNorm2D[B tensor.Backend] = nn.BatchNorm2D[B]

// NewBatchNorm2D creates a batch normalization layer over numFeatures
// channels.
func NewBatchNorm2D[B tensor.Backend](numFeatures int, backend B) *BatchNorm2D[B] {
	return nn.NewBatchNorm2D(numFeatures, backend)
}

// Dropout randomly zeroes activations during training with probability p,
// scaling survivors by 1/(1-p). It is the identity in evaluation mode.
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a dropout layer driven by rng.
func NewDropout[B tensor.Backend](p float64, rng *rand.Rand) *Dropout[B] {
	return nn.NewDropout[B](p, rng)
}

// Flatten collapses all trailing dimensions into one, producing
// [batch, features].
type Flatten[B tensor.Backend] = nn.Flatten[B]

// NewFlatten creates a flatten layer.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return nn.NewFlatten[B]()
}

// Sequential chains modules, feeding each output into the next module.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a sequential container from the given modules.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Activations

// ReLU represents the rectified linear unit activation.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a new ReLU activation layer.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Sigmoid represents the logistic sigmoid activation.
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a new sigmoid activation layer.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return nn.NewSigmoid[B]()
}

// Tanh represents the hyperbolic tangent activation.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a new tanh activation layer.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return nn.NewTanh[B]()
}

// Losses

// ImageBCELoss computes per-pixel binary cross-entropy averaged over
// channels, summed over the spatial grid and averaged over the batch.
type ImageBCELoss[B tensor.Backend] = nn.ImageBCELoss[B]

// NewImageBCELoss creates an image BCE loss module.
func NewImageBCELoss[B tensor.Backend]() *ImageBCELoss[B] {
	return nn.NewImageBCELoss[B]()
}

// GaussianKLLoss computes the KL divergence between a diagonal Gaussian
// and the standard normal prior.
type GaussianKLLoss[B tensor.Backend] = nn.GaussianKLLoss[B]

// NewGaussianKLLoss creates a Gaussian KL loss module.
func NewGaussianKLLoss[B tensor.Backend]() *GaussianKLLoss[B] {
	return nn.NewGaussianKLLoss[B]()
}

// Initializers

// Xavier returns a tensor initialized with Xavier/Glorot uniform values
// drawn from rng.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, rng, backend)
}
