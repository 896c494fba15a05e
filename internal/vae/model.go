package vae

import (
	"math/rand"

	"github.com/facevae-ml/facevae/internal/autodiff"
	"github.com/facevae-ml/facevae/internal/nn"
	"github.com/facevae-ml/facevae/internal/optim"
	"github.com/facevae-ml/facevae/internal/tensor"
)

// StepMetrics reports the loss terms of one training step.
type StepMetrics struct {
	Total          float32
	Reconstruction float32
	KL             float32
}

// VAE composes the encoder and decoder and owns the custom training
// step: forward pass under a recording tape, composite loss, reverse
// pass, optimizer update.
type VAE[B tensor.Backend] struct {
	encoder *Encoder[B]
	decoder *Decoder[B]
	recLoss *nn.ImageBCELoss[B]
	klLoss  *nn.GaussianKLLoss[B]
	backend B
}

// New builds a VAE for imageSize×imageSize RGB images with a
// latentDim-dimensional latent space. Dropout masks and sampling noise
// are drawn from rng.
func New[B tensor.Backend](imageSize, latentDim int, rng *rand.Rand, backend B) *VAE[B] {
	return &VAE[B]{
		encoder: NewEncoder(imageSize, latentDim, rng, backend),
		decoder: NewDecoder(imageSize, latentDim, rng, backend),
		recLoss: nn.NewImageBCELoss[B](),
		klLoss:  nn.NewGaussianKLLoss[B](),
		backend: backend,
	}
}

// Encoder returns the encoder network.
func (m *VAE[B]) Encoder() *Encoder[B] { return m.encoder }

// Decoder returns the decoder network.
func (m *VAE[B]) Decoder() *Decoder[B] { return m.decoder }

// Backend returns the backend the model computes on.
func (m *VAE[B]) Backend() B { return m.backend }

// Parameters returns every trainable parameter of both networks.
func (m *VAE[B]) Parameters() []*nn.Parameter[B] {
	params := m.encoder.Parameters()
	params = append(params, m.decoder.Parameters()...)
	return params
}

// SetTraining toggles train/eval mode through both networks.
func (m *VAE[B]) SetTraining(training bool) {
	m.encoder.SetTraining(training)
	m.decoder.SetTraining(training)
}

// Forward runs the full autoencoding pass and returns the latent
// Gaussian parameters and the reconstruction.
func (m *VAE[B]) Forward(images *tensor.Tensor[float32, B]) (mean, logVar, recon *tensor.Tensor[float32, B]) {
	mean, logVar, z := m.encoder.Encode(images)
	recon = m.decoder.Decode(z)
	return mean, logVar, recon
}

// Reconstruct encodes and decodes images without touching training
// state, for inspection.
func (m *VAE[B]) Reconstruct(images *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	_, _, recon := m.Forward(images)
	return recon
}

// TrainStep performs one gradient update on a batch.
//
// The tape records the forward pass and the two fused loss terms; the
// backward pass is seeded from the unit gradient of their taped sum. The
// tape is cleared afterwards: over a thousand epochs a leaking tape
// would hold every intermediate tensor of the run.
func (m *VAE[B]) TrainStep(batch *tensor.Tensor[float32, B], opt optim.Optimizer) StepMetrics {
	bc, ok := any(m.backend).(autodiff.BackwardCapable)
	if !ok {
		panic("vae: training requires an autodiff backend")
	}

	tape := bc.GetTape()
	tape.StartRecording()
	defer func() {
		tape.StopRecording()
		tape.Clear()
	}()

	mean, logVar, recon := m.Forward(batch)

	recLoss := m.recLoss.Forward(recon, batch)
	klLoss := m.klLoss.Forward(mean, logVar)
	total := m.backend.Add(recLoss.Raw(), klLoss.Raw())

	seed, err := tensor.NewRaw(total.Shape(), tensor.Float32, m.backend.Device())
	if err != nil {
		panic(err)
	}
	seed.AsFloat32()[0] = 1
	grads := tape.Backward(seed, m.backend)

	opt.Step(grads)
	opt.ZeroGrad()

	return StepMetrics{
		Total:          total.AsFloat32()[0],
		Reconstruction: recLoss.Raw().AsFloat32()[0],
		KL:             klLoss.Raw().AsFloat32()[0],
	}
}
