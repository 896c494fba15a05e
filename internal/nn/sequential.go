package nn

import (
	"github.com/facevae-ml/facevae/internal/tensor"
)

// Sequential chains modules, feeding each one's output to the next.
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential creates a container running the given modules in order.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{modules: modules}
}

// Forward runs the input through every module in order.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := input
	for _, m := range s.modules {
		out = m.Forward(out)
	}
	return out
}

// Parameters collects the parameters of all contained modules.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// SetTraining propagates the mode to every mode-aware module.
func (s *Sequential[B]) SetTraining(training bool) {
	for _, m := range s.modules {
		if tm, ok := m.(TrainableModule); ok {
			tm.SetTraining(training)
		}
	}
}

// Modules returns the contained modules in order.
func (s *Sequential[B]) Modules() []Module[B] {
	return s.modules
}
