package nn

import (
	"fmt"
	"math/rand"

	"github.com/facevae-ml/facevae/internal/tensor"
)

// DropoutBackend is implemented by backends with a fused dropout kernel.
type DropoutBackend interface {
	Dropout(x *tensor.RawTensor, p float64, rng *rand.Rand) *tensor.RawTensor
}

// Dropout randomly zeroes activations during training with probability p
// and scales the survivors by 1/(1-p). In eval mode it is the identity.
type Dropout[B tensor.Backend] struct {
	p        float64
	training bool
	rng      *rand.Rand
}

// NewDropout creates a dropout layer. A fresh mask is drawn from rng on
// every training-mode forward pass.
func NewDropout[B tensor.Backend](p float64, rng *rand.Rand) *Dropout[B] {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("dropout: probability %v out of [0, 1)", p))
	}
	return &Dropout[B]{p: p, training: true, rng: rng}
}

// SetTraining switches between masking and identity behavior.
func (d *Dropout[B]) SetTraining(training bool) {
	d.training = training
}

// Forward masks the input in training mode and passes it through
// untouched in eval mode.
func (d *Dropout[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.p == 0 {
		return input
	}
	backend, ok := any(input.Backend()).(DropoutBackend)
	if !ok {
		panic("dropout: backend does not implement Dropout (wrap it with autodiff)")
	}
	raw := backend.Dropout(input.Raw(), d.p, d.rng)
	return tensor.New[float32, B](raw, input.Backend())
}

// Parameters returns nil; dropout has nothing to train.
func (d *Dropout[B]) Parameters() []*Parameter[B] {
	return nil
}

func (d *Dropout[B]) String() string {
	return fmt.Sprintf("Dropout(p=%g)", d.p)
}
