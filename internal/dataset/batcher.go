package dataset

import (
	"math/rand"
)

// Batcher produces shuffled index batches over a dataset. The final
// short batch is kept so every image is seen each epoch.
type Batcher struct {
	numSamples int
	batchSize  int
	rng        *rand.Rand
	order      []int
}

// NewBatcher creates a batcher over numSamples items.
func NewBatcher(numSamples, batchSize int, rng *rand.Rand) *Batcher {
	if batchSize <= 0 {
		panic("dataset: batch size must be positive")
	}
	order := make([]int, numSamples)
	for i := range order {
		order[i] = i
	}
	return &Batcher{
		numSamples: numSamples,
		batchSize:  batchSize,
		rng:        rng,
		order:      order,
	}
}

// Shuffle reorders the epoch's sample order in place.
func (b *Batcher) Shuffle() {
	b.rng.Shuffle(len(b.order), func(i, j int) {
		b.order[i], b.order[j] = b.order[j], b.order[i]
	})
}

// Batches returns the index batches for one epoch in the current order.
// The returned slices alias the batcher's order; consume them before the
// next Shuffle.
func (b *Batcher) Batches() [][]int {
	var batches [][]int
	for start := 0; start < b.numSamples; start += b.batchSize {
		end := start + b.batchSize
		if end > b.numSamples {
			end = b.numSamples
		}
		batches = append(batches, b.order[start:end])
	}
	return batches
}

// NumBatches returns how many batches one epoch yields.
func (b *Batcher) NumBatches() int {
	return (b.numSamples + b.batchSize - 1) / b.batchSize
}
