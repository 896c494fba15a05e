package vae

import (
	"fmt"
	"math/rand"

	"github.com/facevae-ml/facevae/internal/nn"
	"github.com/facevae-ml/facevae/internal/tensor"
)

// Decoder maps latent vectors [B, D] back to [B, 3, 60, 60] images.
//
// A dense layer expands the latent code onto a 15×15 grid of 128
// channels, then two stride-2 transposed convolutions grow 15→30→60.
// The final layer uses tanh, so raw outputs live in (-1, 1); consumers
// clamp to [0, 1] before treating them as pixels.
type Decoder[B tensor.Backend] struct {
	project  *nn.Linear[B]
	relu     *nn.ReLU[B]
	upsample *nn.Sequential[B]

	imageSize int
	latentDim int
	gridSize  int // spatial size after projection
}

// NewDecoder builds the decoder producing imageSize×imageSize RGB output
// from a latentDim-dimensional code.
func NewDecoder[B tensor.Backend](imageSize, latentDim int, rng *rand.Rand, backend B) *Decoder[B] {
	if imageSize%4 != 0 {
		panic(fmt.Sprintf("decoder: image size %d must be divisible by 4 (two stride-2 upsamples)", imageSize))
	}
	grid := imageSize / 4

	upsample := nn.NewSequential[B](
		nn.NewConvTranspose2D(128, 64, 3, 2, 1, 1, rng, backend),
		nn.NewReLU[B](),
		nn.NewBatchNorm2D(64, backend),
		nn.NewDropout[B](0.5, rng),
		nn.NewConvTranspose2D(64, 32, 3, 2, 1, 1, rng, backend),
		nn.NewReLU[B](),
		nn.NewConvTranspose2D(32, 3, 3, 1, 1, 0, rng, backend),
		nn.NewTanh[B](),
	)

	return &Decoder[B]{
		project:   nn.NewLinear(latentDim, 128*grid*grid, rng, backend),
		relu:      nn.NewReLU[B](),
		upsample:  upsample,
		imageSize: imageSize,
		latentDim: latentDim,
		gridSize:  grid,
	}
}

// Decode reconstructs images from latent codes.
func (d *Decoder[B]) Decode(z *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := z.Shape()
	if len(shape) != 2 || shape[1] != d.latentDim {
		panic(fmt.Sprintf("decoder: expected [batch, %d] latent input, got %v", d.latentDim, shape))
	}
	batch := shape[0]

	h := d.relu.Forward(d.project.Forward(z))
	grid := h.Reshape(batch, 128, d.gridSize, d.gridSize)
	return d.upsample.Forward(grid)
}

// Parameters returns all trainable parameters of the decoder.
func (d *Decoder[B]) Parameters() []*nn.Parameter[B] {
	params := d.project.Parameters()
	params = append(params, d.upsample.Parameters()...)
	return params
}

// SetTraining toggles dropout and batch normalization behavior.
func (d *Decoder[B]) SetTraining(training bool) {
	d.upsample.SetTraining(training)
}

// LatentDim returns the size of the latent space.
func (d *Decoder[B]) LatentDim() int {
	return d.latentDim
}
