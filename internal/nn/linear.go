package nn

import (
	"fmt"
	"math/rand"

	"github.com/facevae-ml/facevae/internal/tensor"
)

// Linear is a fully connected layer computing y = x @ Wᵀ + b.
//
// Input shape [batch, inFeatures], output shape [batch, outFeatures].
// Weights use Xavier initialization, biases start at zero.
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B] // [outFeatures, inFeatures]
	bias        *Parameter[B] // [outFeatures]
	backend     B
}

// NewLinear creates a fully connected layer with weights drawn from rng.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("linear: invalid features in=%d out=%d", inFeatures, outFeatures))
	}
	weight := NewParameter("linear.weight",
		Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, rng, backend))
	bias := NewParameter("linear.bias", Zeros(tensor.Shape{outFeatures}, backend))

	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      weight,
		bias:        bias,
		backend:     backend,
	}
}

// Forward computes y = x @ Wᵀ + b.
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("linear: expected [batch, features] input, got %v", shape))
	}
	if shape[1] != l.inFeatures {
		panic(fmt.Sprintf("linear: input has %d features, layer expects %d", shape[1], l.inFeatures))
	}

	out := input.MatMul(l.weight.Tensor().T())
	return out.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
}

// Parameters returns [weight, bias].
func (l *Linear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}

func (l *Linear[B]) String() string {
	return fmt.Sprintf("Linear(in=%d, out=%d)", l.inFeatures, l.outFeatures)
}
