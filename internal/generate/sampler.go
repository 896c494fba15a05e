// Package generate turns a trained decoder into images: it samples the
// latent prior, decodes in eval mode, and renders the results as a PNG
// grid.
package generate

import (
	"fmt"
	"math/rand"

	"github.com/facevae-ml/facevae/internal/tensor"
	"github.com/facevae-ml/facevae/internal/vae"
)

// Sampler draws latent vectors from the standard normal prior the KL
// term regularizes toward.
type Sampler struct {
	latentDim int
	rng       *rand.Rand
}

// NewSampler creates a sampler over a latentDim-dimensional prior.
func NewSampler(latentDim int, rng *rand.Rand) *Sampler {
	if latentDim <= 0 {
		panic(fmt.Sprintf("generate: invalid latent dimension %d", latentDim))
	}
	return &Sampler{latentDim: latentDim, rng: rng}
}

// Latents draws n prior samples as an [n, latentDim] tensor.
func Latents[B tensor.Backend](s *Sampler, n int, backend B) *tensor.Tensor[float32, B] {
	if n <= 0 {
		panic(fmt.Sprintf("generate: invalid sample count %d", n))
	}
	raw, err := tensor.NewRaw(tensor.Shape{n, s.latentDim}, tensor.Float32, backend.Device())
	if err != nil {
		panic(fmt.Sprintf("generate: latent alloc: %v", err))
	}
	data := raw.AsFloat32()
	for i := range data {
		data[i] = float32(s.rng.NormFloat64())
	}
	return tensor.New[float32, B](raw, backend)
}

// Decode runs the decoder over prior samples in eval mode and returns
// the raw [n, 3, H, W] output. Values are still in the decoder's (-1, 1)
// range; rendering clamps them to [0, 1].
func Decode[B tensor.Backend](s *Sampler, decoder *vae.Decoder[B], n int, backend B) *tensor.Tensor[float32, B] {
	decoder.SetTraining(false)
	z := Latents(s, n, backend)
	return decoder.Decode(z)
}
