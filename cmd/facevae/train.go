package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/facevae-ml/facevae/autodiff"
	"github.com/facevae-ml/facevae/backend/cpu"
	"github.com/facevae-ml/facevae/dataset"
	"github.com/facevae-ml/facevae/generate"
	"github.com/facevae-ml/facevae/optim"
	"github.com/facevae-ml/facevae/vae"
)

var (
	trainData    string
	trainSamples int
	trainEpochs  int
	trainBatch   int
	trainLR      float64
	trainLatent  int
	trainOut     string
	trainSeed    int64
	trainOpt     string
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a VAE on an image dataset",
	Long: `Trains a variational autoencoder on a NumPy .npy dataset of NHWC
RGB images and finishes by decoding a grid of fresh latent samples
into a PNG contact sheet.

Example:
  facevae train --data faces.npy --epochs 1000 --out samples.png`,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().StringVar(&trainData, "data", "", "path to .npy image dataset (required)")
	trainCmd.Flags().IntVar(&trainSamples, "samples", 15000, "cap on the number of training samples (0 = all)")
	trainCmd.Flags().IntVar(&trainEpochs, "epochs", 1000, "number of training epochs")
	trainCmd.Flags().IntVar(&trainBatch, "batch", 64, "mini-batch size")
	trainCmd.Flags().Float64Var(&trainLR, "lr", 0.002, "learning rate")
	trainCmd.Flags().StringVar(&trainOpt, "optimizer", "adam", "optimizer (adam or sgd)")
	trainCmd.Flags().IntVar(&trainLatent, "latent", 32, "latent space dimensionality")
	trainCmd.Flags().StringVar(&trainOut, "out", "samples.png", "output path for the generated sample grid")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", 42, "random seed")
	_ = trainCmd.MarkFlagRequired("data")
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	applyString(&trainData, cfg.Data)
	applyInt(&trainSamples, cfg.Samples)
	applyInt(&trainEpochs, cfg.Epochs)
	applyInt(&trainBatch, cfg.Batch)
	applyFloat64(&trainLR, cfg.LR)
	applyInt(&trainLatent, cfg.Latent)
	applyString(&trainOut, cfg.Out)
	applyInt64(&trainSeed, cfg.Seed)
	applyString(&trainOpt, cfg.Optimizer)

	rng := rand.New(rand.NewSource(trainSeed)) //nolint:gosec // reproducible runs, not crypto

	ds, err := dataset.LoadNPY(trainData)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	if trainSamples > 0 {
		ds = ds.Limit(trainSamples)
	}
	c, h, w := ds.ImageShape()
	if h != w {
		return fmt.Errorf("dataset images must be square, got %dx%d", h, w)
	}
	logger.Info("dataset loaded",
		zap.String("path", trainData),
		zap.Int("samples", ds.NumSamples()),
		zap.Int("channels", c),
		zap.Int("size", h),
	)

	backend := autodiff.New(cpu.New())
	model := vae.New(h, trainLatent, rng, backend)

	var optimizer optim.Optimizer
	switch trainOpt {
	case "adam":
		optimizer = optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: float32(trainLR)})
	case "sgd":
		optimizer = optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: float32(trainLR), Momentum: 0.9})
	default:
		return fmt.Errorf("unknown optimizer %q (want adam or sgd)", trainOpt)
	}

	trainer := vae.NewTrainer(model, optimizer, vae.TrainerConfig{
		Epochs:    trainEpochs,
		BatchSize: trainBatch,
	}, rng, logger)
	metrics := trainer.Fit(ds)

	logger.Info("training complete",
		zap.Float64("loss", metrics.Total),
		zap.Float64("reconstruction_loss", metrics.Reconstruction),
		zap.Float64("kl_loss", metrics.KL),
	)

	// Contact sheet of fresh samples from the trained decoder.
	const rows, cols = 3, 4
	sampler := generate.NewSampler(trainLatent, rng)
	images := generate.Decode(sampler, model.Decoder(), rows*cols, backend)
	if err := generate.SaveGrid(trainOut, images.Raw(), generate.GridConfig{Rows: rows, Cols: cols}); err != nil {
		return fmt.Errorf("failed to write sample grid: %w", err)
	}
	logger.Info("sample grid written", zap.String("path", trainOut))
	return nil
}
