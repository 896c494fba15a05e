package vae

// Mean is a running weighted mean for per-epoch loss tracking. Each
// batch contributes with weight equal to its sample count, so short
// final batches do not skew the epoch average.
type Mean struct {
	sum    float64
	weight float64
}

// Update folds a batch value with the given weight into the mean.
func (m *Mean) Update(value float64, weight int) {
	m.sum += value * float64(weight)
	m.weight += float64(weight)
}

// Value returns the current mean, or 0 before any update.
func (m *Mean) Value() float64 {
	if m.weight == 0 {
		return 0
	}
	return m.sum / m.weight
}

// Reset clears the accumulator for the next epoch.
func (m *Mean) Reset() {
	m.sum = 0
	m.weight = 0
}
