package optim

import (
	"math"

	"github.com/facevae-ml/facevae/internal/nn"
	"github.com/facevae-ml/facevae/internal/tensor"
)

// Adam implements adaptive moment estimation (Kingma & Ba, 2014).
//
// Per parameter element:
//
//	m = β₁·m + (1-β₁)·g
//	v = β₂·v + (1-β₂)·g²
//	θ = θ - lr · (m / (1-β₁ᵗ)) / (√(v / (1-β₂ᵗ)) + ε)
//
// The moment buffers start at zero, so the 1/(1-βᵗ) factors correct the
// bias of the first steps.
type Adam[B tensor.Backend] struct {
	params []*nn.Parameter[B]
	lr     float32
	beta1  float32
	beta2  float32
	eps    float32
	t      int

	m map[*nn.Parameter[B]][]float32 // first moment per parameter
	v map[*nn.Parameter[B]][]float32 // second moment per parameter
}

// AdamConfig configures Adam. Zero fields take the usual defaults:
// lr 0.001, betas (0.9, 0.999), eps 1e-8.
type AdamConfig struct {
	LR    float32
	Betas [2]float32
	Eps   float32
}

// NewAdam creates an Adam optimizer over the given parameters.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig) *Adam[B] {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam[B]{
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      make(map[*nn.Parameter[B]][]float32),
		v:      make(map[*nn.Parameter[B]][]float32),
	}
}

// Step applies one Adam update to every parameter with a gradient.
func (a *Adam[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.t++
	correction1 := float32(1 - math.Pow(float64(a.beta1), float64(a.t)))
	correction2 := float32(1 - math.Pow(float64(a.beta2), float64(a.t)))

	for _, param := range a.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		g := grad.AsFloat32()
		theta := param.Tensor().Raw().AsFloat32()

		m, ok := a.m[param]
		if !ok {
			m = make([]float32, len(theta))
			a.m[param] = m
		}
		v, ok := a.v[param]
		if !ok {
			v = make([]float32, len(theta))
			a.v[param] = v
		}

		for i := range theta {
			m[i] = a.beta1*m[i] + (1-a.beta1)*g[i]
			v[i] = a.beta2*v[i] + (1-a.beta2)*g[i]*g[i]
			mHat := m[i] / correction1
			vHat := v[i] / correction2
			theta[i] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
		}
	}
}

// ZeroGrad clears all parameter gradients.
func (a *Adam[B]) ZeroGrad() {
	for _, param := range a.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (a *Adam[B]) GetLR() float32 {
	return a.lr
}

// SetLR changes the learning rate, for schedules.
func (a *Adam[B]) SetLR(lr float32) {
	a.lr = lr
}

// Timestep returns how many steps have been applied.
func (a *Adam[B]) Timestep() int {
	return a.t
}
