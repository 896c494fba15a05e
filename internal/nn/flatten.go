package nn

import (
	"fmt"

	"github.com/facevae-ml/facevae/internal/tensor"
)

// Flatten collapses all dimensions after the batch axis, turning
// [N, C, H, W] feature maps into [N, C·H·W] vectors for dense layers.
type Flatten[B tensor.Backend] struct{}

// NewFlatten creates a flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return &Flatten[B]{}
}

func (f *Flatten[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("flatten: expected at least 2 dimensions, got %v", shape))
	}
	features := 1
	for _, d := range shape[1:] {
		features *= d
	}
	return input.Reshape(shape[0], features)
}

func (f *Flatten[B]) Parameters() []*Parameter[B] { return nil }
