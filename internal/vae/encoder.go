package vae

import (
	"fmt"
	"math/rand"

	"github.com/facevae-ml/facevae/internal/nn"
	"github.com/facevae-ml/facevae/internal/tensor"
)

// Encoder maps [B, 3, 60, 60] images to the parameters of a diagonal
// Gaussian over the latent space and a sample from it.
//
// Stack: two stride-2 convolutions shrink 60→30→15 with batch
// normalization and dropout after the first, then a narrow dense
// bottleneck feeds the two latent heads.
type Encoder[B tensor.Backend] struct {
	features   *nn.Sequential[B]
	hidden     *nn.Linear[B] // bottleneck before the heads
	relu       *nn.ReLU[B]
	meanHead   *nn.Linear[B]
	logVarHead *nn.Linear[B]
	sampling   *Sampling[B]

	imageSize int
	latentDim int
}

// NewEncoder builds the encoder for imageSize×imageSize RGB input and a
// latentDim-dimensional latent space.
func NewEncoder[B tensor.Backend](imageSize, latentDim int, rng *rand.Rand, backend B) *Encoder[B] {
	if imageSize%4 != 0 {
		panic(fmt.Sprintf("encoder: image size %d must be divisible by 4 (two stride-2 convolutions)", imageSize))
	}
	reduced := imageSize / 4
	flat := 64 * reduced * reduced

	features := nn.NewSequential[B](
		nn.NewConv2D(3, 32, 3, 2, 1, rng, backend),
		nn.NewReLU[B](),
		nn.NewBatchNorm2D(32, backend),
		nn.NewDropout[B](0.5, rng),
		nn.NewConv2D(32, 64, 3, 2, 1, rng, backend),
		nn.NewReLU[B](),
		nn.NewFlatten[B](),
	)

	return &Encoder[B]{
		features:   features,
		hidden:     nn.NewLinear(flat, 16, rng, backend),
		relu:       nn.NewReLU[B](),
		meanHead:   nn.NewLinear(16, latentDim, rng, backend),
		logVarHead: nn.NewLinear(16, latentDim, rng, backend),
		sampling:   NewSampling(rng, backend),
		imageSize:  imageSize,
		latentDim:  latentDim,
	}
}

// Encode returns the latent Gaussian parameters and a reparameterized
// sample: (mean [B, D], logVar [B, D], z [B, D]).
func (e *Encoder[B]) Encode(images *tensor.Tensor[float32, B]) (mean, logVar, z *tensor.Tensor[float32, B]) {
	shape := images.Shape()
	if len(shape) != 4 || shape[1] != 3 || shape[2] != e.imageSize || shape[3] != e.imageSize {
		panic(fmt.Sprintf("encoder: expected [batch, 3, %d, %d] input, got %v", e.imageSize, e.imageSize, shape))
	}

	h := e.relu.Forward(e.hidden.Forward(e.features.Forward(images)))
	mean = e.meanHead.Forward(h)
	logVar = e.logVarHead.Forward(h)
	z = e.sampling.Sample(mean, logVar)
	return mean, logVar, z
}

// Parameters returns all trainable parameters of the encoder.
func (e *Encoder[B]) Parameters() []*nn.Parameter[B] {
	params := e.features.Parameters()
	params = append(params, e.hidden.Parameters()...)
	params = append(params, e.meanHead.Parameters()...)
	params = append(params, e.logVarHead.Parameters()...)
	return params
}

// SetTraining toggles dropout and batch normalization behavior.
func (e *Encoder[B]) SetTraining(training bool) {
	e.features.SetTraining(training)
}

// LatentDim returns the size of the latent space.
func (e *Encoder[B]) LatentDim() int {
	return e.latentDim
}
