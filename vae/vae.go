// Copyright 2025 FaceVAE Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package vae provides the convolutional variational autoencoder that is
// the heart of FaceVAE.
//
// A VAE pairs an Encoder, which maps images to a latent Gaussian
// distribution and draws reparameterized samples from it, with a
// Decoder, which maps latent vectors back to images. Training minimizes
// a reconstruction term (binary cross-entropy against the input) plus a
// KL divergence term that keeps the latent distribution close to a
// standard normal.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	rng := rand.New(rand.NewSource(42))
//
//	model := vae.New(60, 32, rng, backend)
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.002})
//
//	trainer := vae.NewTrainer(model, optimizer, vae.TrainerConfig{
//	    Epochs:    1000,
//	    BatchSize: 64,
//	}, rng, logger)
//	metrics := trainer.Fit(ds)
package vae

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/facevae-ml/facevae/internal/optim"
	"github.com/facevae-ml/facevae/internal/tensor"
	"github.com/facevae-ml/facevae/internal/vae"
)

// VAE couples an encoder and decoder into a trainable model.
type VAE[B tensor.Backend] = vae.VAE[B]

// New builds a VAE for square images of the given size with the given
// latent dimensionality. All weights are initialized from rng.
func New[B tensor.Backend](imageSize, latentDim int, rng *rand.Rand, backend B) *VAE[B] {
	return vae.New(imageSize, latentDim, rng, backend)
}

// Encoder maps images to the parameters of a latent Gaussian and samples
// from it.
type Encoder[B tensor.Backend] = vae.Encoder[B]

// NewEncoder builds an encoder for square images of the given size.
func NewEncoder[B tensor.Backend](imageSize, latentDim int, rng *rand.Rand, backend B) *Encoder[B] {
	return vae.NewEncoder(imageSize, latentDim, rng, backend)
}

// Decoder maps latent vectors back to images.
type Decoder[B tensor.Backend] = vae.Decoder[B]

// NewDecoder builds a decoder producing square images of the given size.
func NewDecoder[B tensor.Backend](imageSize, latentDim int, rng *rand.Rand, backend B) *Decoder[B] {
	return vae.NewDecoder(imageSize, latentDim, rng, backend)
}

// Sampling draws reparameterized samples from a latent Gaussian.
type Sampling[B tensor.Backend] = vae.Sampling[B]

// NewSampling builds a sampling layer driven by rng.
func NewSampling[B tensor.Backend](rng *rand.Rand, backend B) *Sampling[B] {
	return vae.NewSampling(rng, backend)
}

// StepMetrics reports the loss components of one training step.
type StepMetrics = vae.StepMetrics

// EpochMetrics reports the averaged loss components of one epoch.
type EpochMetrics = vae.EpochMetrics

// TrainerConfig controls the training loop.
type TrainerConfig = vae.TrainerConfig

// Trainer drives epochs of mini-batch training over a dataset.
type Trainer[B tensor.Backend] = vae.Trainer[B]

// NewTrainer builds a trainer. A nil logger disables logging.
func NewTrainer[B tensor.Backend](model *VAE[B], opt optim.Optimizer, config TrainerConfig, rng *rand.Rand, log *zap.Logger) *Trainer[B] {
	return vae.NewTrainer(model, opt, config, rng, log)
}

// Mean is a streaming weighted mean used for epoch metrics.
type Mean = vae.Mean
