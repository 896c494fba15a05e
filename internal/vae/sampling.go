// Package vae implements the variational autoencoder: encoder and
// decoder networks, the reparameterization sampling layer, the composite
// reconstruction+KL loss, and the training loop that ties them to the
// optimizer.
package vae

import (
	"fmt"
	"math/rand"

	"github.com/facevae-ml/facevae/internal/nn"
	"github.com/facevae-ml/facevae/internal/tensor"
)

// ReparameterizeBackend is implemented by backends with a fused
// reparameterization kernel.
type ReparameterizeBackend interface {
	Reparameterize(mean, logVar, eps *tensor.RawTensor) *tensor.RawTensor
}

// Sampling draws a latent vector from the per-example Gaussian the
// encoder predicts, using the reparameterization trick:
//
//	z = mean + e^(logVar/2) · eps,  eps ~ N(0, I)
//
// Sampling from the distribution directly would not be differentiable;
// moving the randomness into the noise leaf lets gradients flow to mean
// and logVar. Fresh noise is drawn on every call.
type Sampling[B tensor.Backend] struct {
	rng     *rand.Rand
	backend B
}

// NewSampling creates a sampling layer drawing noise from rng.
func NewSampling[B tensor.Backend](rng *rand.Rand, backend B) *Sampling[B] {
	return &Sampling[B]{rng: rng, backend: backend}
}

// Sample draws z ~ N(mean, e^logVar) for each row.
func (s *Sampling[B]) Sample(mean, logVar *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !mean.Shape().Equal(logVar.Shape()) {
		panic(fmt.Sprintf("sampling: mean %v and logVar %v differ", mean.Shape(), logVar.Shape()))
	}
	backend, ok := any(s.backend).(ReparameterizeBackend)
	if !ok {
		panic("sampling: backend does not implement Reparameterize (wrap it with autodiff)")
	}

	eps, err := tensor.NewRaw(mean.Shape(), tensor.Float32, s.backend.Device())
	if err != nil {
		panic(fmt.Sprintf("sampling: noise alloc: %v", err))
	}
	noise := eps.AsFloat32()
	for i := range noise {
		noise[i] = float32(s.rng.NormFloat64())
	}

	raw := backend.Reparameterize(mean.Raw(), logVar.Raw(), eps)
	return tensor.New[float32, B](raw, s.backend)
}

// Parameters returns nil; the sampling layer has nothing to train.
func (s *Sampling[B]) Parameters() []*nn.Parameter[B] {
	return nil
}
