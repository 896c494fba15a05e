package vae

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/facevae-ml/facevae/internal/dataset"
	"github.com/facevae-ml/facevae/internal/optim"
	"github.com/facevae-ml/facevae/internal/tensor"
)

// TrainerConfig controls the fit loop.
type TrainerConfig struct {
	Epochs    int
	BatchSize int
}

// EpochMetrics holds the per-epoch weighted means of the loss terms.
type EpochMetrics struct {
	Epoch          int
	Total          float64
	Reconstruction float64
	KL             float64
}

// Trainer runs the epoch loop: shuffle, batch, TrainStep, log.
type Trainer[B tensor.Backend] struct {
	model  *VAE[B]
	opt    optim.Optimizer
	config TrainerConfig
	rng    *rand.Rand
	log    *zap.Logger
}

// NewTrainer wires a model, its optimizer and the loop configuration.
func NewTrainer[B tensor.Backend](model *VAE[B], opt optim.Optimizer, config TrainerConfig, rng *rand.Rand, log *zap.Logger) *Trainer[B] {
	if config.Epochs <= 0 {
		config.Epochs = 1
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 64
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Trainer[B]{model: model, opt: opt, config: config, rng: rng, log: log}
}

// Fit trains the model on the dataset and returns the final epoch's
// metrics.
func (t *Trainer[B]) Fit(ds *dataset.Dataset) EpochMetrics {
	t.model.SetTraining(true)
	defer t.model.SetTraining(false)

	batcher := dataset.NewBatcher(ds.NumSamples(), t.config.BatchSize, t.rng)
	t.log.Info("training started",
		zap.Int("samples", ds.NumSamples()),
		zap.Int("epochs", t.config.Epochs),
		zap.Int("batch_size", t.config.BatchSize),
		zap.Float32("lr", t.opt.GetLR()),
	)

	var totalMean, recMean, klMean Mean
	var last EpochMetrics

	for epoch := 1; epoch <= t.config.Epochs; epoch++ {
		start := time.Now()
		totalMean.Reset()
		recMean.Reset()
		klMean.Reset()

		batcher.Shuffle()
		for _, indices := range batcher.Batches() {
			batch := dataset.Batch(ds, indices, t.model.Backend())
			step := t.model.TrainStep(batch, t.opt)

			totalMean.Update(float64(step.Total), len(indices))
			recMean.Update(float64(step.Reconstruction), len(indices))
			klMean.Update(float64(step.KL), len(indices))
		}

		last = EpochMetrics{
			Epoch:          epoch,
			Total:          totalMean.Value(),
			Reconstruction: recMean.Value(),
			KL:             klMean.Value(),
		}
		t.log.Info("epoch finished",
			zap.Int("epoch", epoch),
			zap.Float64("loss", last.Total),
			zap.Float64("reconstruction_loss", last.Reconstruction),
			zap.Float64("kl_loss", last.KL),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return last
}
