package optim

import (
	"github.com/facevae-ml/facevae/internal/nn"
	"github.com/facevae-ml/facevae/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum:
//
//	velocity = momentum·velocity + g
//	θ = θ - lr·velocity
type SGD[B tensor.Backend] struct {
	params   []*nn.Parameter[B]
	lr       float32
	momentum float32

	velocity map[*nn.Parameter[B]][]float32
}

// SGDConfig configures SGD. A zero learning rate defaults to 0.01;
// momentum 0 is plain gradient descent.
type SGDConfig struct {
	LR       float32
	Momentum float32
}

// NewSGD creates an SGD optimizer over the given parameters.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD[B]{
		params:   params,
		lr:       config.LR,
		momentum: config.Momentum,
		velocity: make(map[*nn.Parameter[B]][]float32),
	}
}

// Step applies one SGD update to every parameter with a gradient.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, param := range s.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		g := grad.AsFloat32()
		theta := param.Tensor().Raw().AsFloat32()

		if s.momentum == 0 {
			for i := range theta {
				theta[i] -= s.lr * g[i]
			}
			continue
		}

		vel, ok := s.velocity[param]
		if !ok {
			vel = make([]float32, len(theta))
			s.velocity[param] = vel
		}
		for i := range theta {
			vel[i] = s.momentum*vel[i] + g[i]
			theta[i] -= s.lr * vel[i]
		}
	}
}

// ZeroGrad clears all parameter gradients.
func (s *SGD[B]) ZeroGrad() {
	for _, param := range s.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (s *SGD[B]) GetLR() float32 {
	return s.lr
}

// SetLR changes the learning rate.
func (s *SGD[B]) SetLR(lr float32) {
	s.lr = lr
}
