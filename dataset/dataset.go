// Copyright 2025 FaceVAE Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dataset loads and batches image datasets for training.
//
// Datasets are loaded from NumPy .npy files holding NHWC uint8 or
// float32 image arrays and stored as flat NCHW float32 in memory.
// A Batcher shuffles sample indices each epoch and yields mini-batch
// index slices; Batch materializes one mini-batch as a tensor.
//
// Example:
//
//	ds, err := dataset.LoadNPY("faces.npy")
//	if err != nil {
//	    return err
//	}
//	batcher := dataset.NewBatcher(ds.NumSamples(), 64, rng)
//	for _, indices := range batcher.Batches() {
//	    batch := dataset.Batch(ds, indices, backend)
//	    // train on batch
//	}
package dataset

import (
	"io"
	"math/rand"

	"github.com/facevae-ml/facevae/internal/dataset"
	"github.com/facevae-ml/facevae/internal/tensor"
)

// Dataset is an in-memory collection of NCHW float32 images.
type Dataset = dataset.Dataset

// FromSlice builds a dataset from a flat NCHW float32 slice.
func FromSlice(data []float32, n, c, h, w int) (*Dataset, error) {
	return dataset.FromSlice(data, n, c, h, w)
}

// LoadNPY reads a dataset from a NumPy .npy file on disk.
func LoadNPY(path string) (*Dataset, error) {
	return dataset.LoadNPY(path)
}

// ReadNPY reads a dataset from .npy data in r.
func ReadNPY(r io.Reader) (*Dataset, error) {
	return dataset.ReadNPY(r)
}

// Batcher yields shuffled mini-batch index slices over a dataset.
type Batcher = dataset.Batcher

// NewBatcher creates a batcher over numSamples samples.
func NewBatcher(numSamples, batchSize int, rng *rand.Rand) *Batcher {
	return dataset.NewBatcher(numSamples, batchSize, rng)
}

// Batch materializes the samples at indices as one [len(indices), C, H, W]
// tensor on the given backend.
func Batch[B tensor.Backend](d *Dataset, indices []int, backend B) *tensor.Tensor[float32, B] {
	return dataset.Batch(d, indices, backend)
}
