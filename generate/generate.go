// Package generate produces images from a trained decoder.
//
// A Sampler draws latent vectors from a standard normal distribution;
// Decode runs them through a decoder to obtain images. RenderGrid and
// SaveGrid lay a batch of generated images out as a contact sheet and
// encode it as PNG.
//
// Example:
//
//	sampler := generate.NewSampler(model.Decoder().LatentDim(), rng)
//	images := generate.Decode(sampler, model.Decoder(), 12, backend)
//	err := generate.SaveGrid("samples.png", images.Raw(), generate.GridConfig{
//	    Rows: 3,
//	    Cols: 4,
//	})
package generate

import (
	"image"
	"io"
	"math/rand"

	"github.com/facevae-ml/facevae/internal/generate"
	"github.com/facevae-ml/facevae/internal/tensor"
	"github.com/facevae-ml/facevae/internal/vae"
)

// Sampler draws latent vectors from a standard normal distribution.
type Sampler = generate.Sampler

// NewSampler creates a sampler for latentDim-dimensional latents.
func NewSampler(latentDim int, rng *rand.Rand) *Sampler {
	return generate.NewSampler(latentDim, rng)
}

// Latents draws n latent vectors as an [n, latentDim] tensor.
func Latents[B tensor.Backend](s *Sampler, n int, backend B) *tensor.Tensor[float32, B] {
	return generate.Latents(s, n, backend)
}

// Decode draws n latents and decodes them to images. The decoder is put
// in evaluation mode.
func Decode[B tensor.Backend](s *Sampler, decoder *vae.Decoder[B], n int, backend B) *tensor.Tensor[float32, B] {
	return generate.Decode(s, decoder, n, backend)
}

// GridConfig controls contact sheet layout.
type GridConfig = generate.GridConfig

// RenderGrid lays an [N, 3, H, W] batch out as a Rows×Cols image grid.
func RenderGrid(batch *tensor.RawTensor, config GridConfig) (*image.RGBA, error) {
	return generate.RenderGrid(batch, config)
}

// WriteGrid renders the grid and encodes it as PNG into w.
func WriteGrid(w io.Writer, batch *tensor.RawTensor, config GridConfig) error {
	return generate.WriteGrid(w, batch, config)
}

// SaveGrid renders the grid and writes it as a PNG file at path.
func SaveGrid(path string, batch *tensor.RawTensor, config GridConfig) error {
	return generate.SaveGrid(path, batch, config)
}
