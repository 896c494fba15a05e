package nn

import (
	"fmt"

	"github.com/facevae-ml/facevae/internal/tensor"
)

// ImageBCEBackend is implemented by backends with a fused image
// binary cross-entropy kernel.
type ImageBCEBackend interface {
	ImageBCE(pred, target *tensor.RawTensor) *tensor.RawTensor
}

// GaussianKLBackend is implemented by backends with a fused Gaussian
// KL-divergence kernel.
type GaussianKLBackend interface {
	GaussianKL(mean, logVar *tensor.RawTensor) *tensor.RawTensor
}

// ImageBCELoss computes the reconstruction term of the VAE loss:
// per-pixel binary cross-entropy averaged over channels, summed over
// the spatial grid, mean over the batch. Predictions are clamped away
// from 0 and 1 before the log terms.
type ImageBCELoss[B tensor.Backend] struct{}

// NewImageBCELoss creates an image BCE loss module.
func NewImageBCELoss[B tensor.Backend]() *ImageBCELoss[B] {
	return &ImageBCELoss[B]{}
}

// Forward returns the scalar [1] reconstruction loss.
func (l *ImageBCELoss[B]) Forward(pred, target *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !pred.Shape().Equal(target.Shape()) {
		panic(fmt.Sprintf("bce: prediction shape %v does not match target shape %v",
			pred.Shape(), target.Shape()))
	}
	backend, ok := any(pred.Backend()).(ImageBCEBackend)
	if !ok {
		panic("bce: backend does not implement ImageBCE (wrap it with autodiff)")
	}
	return tensor.New[float32, B](backend.ImageBCE(pred.Raw(), target.Raw()), pred.Backend())
}

// Parameters returns nil; loss modules hold no trainable state.
func (l *ImageBCELoss[B]) Parameters() []*Parameter[B] { return nil }

// GaussianKLLoss computes the KL divergence between the encoder's
// Gaussian N(mean, exp(logVar)) and the standard normal prior, summed
// over the latent dimension and averaged over the batch.
type GaussianKLLoss[B tensor.Backend] struct{}

// NewGaussianKLLoss creates a Gaussian KL loss module.
func NewGaussianKLLoss[B tensor.Backend]() *GaussianKLLoss[B] {
	return &GaussianKLLoss[B]{}
}

// Forward returns the scalar [1] KL term.
func (l *GaussianKLLoss[B]) Forward(mean, logVar *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !mean.Shape().Equal(logVar.Shape()) {
		panic(fmt.Sprintf("kl: mean shape %v does not match logVar shape %v",
			mean.Shape(), logVar.Shape()))
	}
	backend, ok := any(mean.Backend()).(GaussianKLBackend)
	if !ok {
		panic("kl: backend does not implement GaussianKL (wrap it with autodiff)")
	}
	return tensor.New[float32, B](backend.GaussianKL(mean.Raw(), logVar.Raw()), mean.Backend())
}

// Parameters returns nil; loss modules hold no trainable state.
func (l *GaussianKLLoss[B]) Parameters() []*Parameter[B] { return nil }
