package nn

import (
	"github.com/facevae-ml/facevae/internal/tensor"
)

// ReLUBackend is implemented by backends with a ReLU kernel.
type ReLUBackend interface {
	ReLU(*tensor.RawTensor) *tensor.RawTensor
}

// SigmoidBackend is implemented by backends with a sigmoid kernel.
type SigmoidBackend interface {
	Sigmoid(*tensor.RawTensor) *tensor.RawTensor
}

// TanhBackend is implemented by backends with a tanh kernel.
type TanhBackend interface {
	Tanh(*tensor.RawTensor) *tensor.RawTensor
}

// ReLU applies f(x) = max(0, x) elementwise.
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend, ok := any(input.Backend()).(ReLUBackend)
	if !ok {
		panic("relu: backend does not implement ReLU (wrap it with autodiff)")
	}
	return tensor.New[float32, B](backend.ReLU(input.Raw()), input.Backend())
}

func (r *ReLU[B]) Parameters() []*Parameter[B] { return nil }

// Sigmoid applies σ(x) = 1/(1+e^-x) elementwise, squashing values into
// (0, 1).
type Sigmoid[B tensor.Backend] struct{}

// NewSigmoid creates a sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return &Sigmoid[B]{}
}

func (s *Sigmoid[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend, ok := any(input.Backend()).(SigmoidBackend)
	if !ok {
		panic("sigmoid: backend does not implement Sigmoid (wrap it with autodiff)")
	}
	return tensor.New[float32, B](backend.Sigmoid(input.Raw()), input.Backend())
}

func (s *Sigmoid[B]) Parameters() []*Parameter[B] { return nil }

// Tanh applies tanh(x) elementwise, squashing values into (-1, 1).
type Tanh[B tensor.Backend] struct{}

// NewTanh creates a tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend, ok := any(input.Backend()).(TanhBackend)
	if !ok {
		panic("tanh: backend does not implement Tanh (wrap it with autodiff)")
	}
	return tensor.New[float32, B](backend.Tanh(input.Raw()), input.Backend())
}

func (t *Tanh[B]) Parameters() []*Parameter[B] { return nil }
