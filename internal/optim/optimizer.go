// Package optim implements the gradient-descent optimizers used for
// training: plain SGD with momentum and Adam.
//
// Optimizers consume the gradient map produced by the autodiff backward
// pass and mutate parameter tensors in place:
//
//	grads := autodiff.Backward(loss, backend)
//	optimizer.Step(grads)
//	optimizer.ZeroGrad()
package optim

import (
	"github.com/facevae-ml/facevae/internal/nn"
	"github.com/facevae-ml/facevae/internal/tensor"
)

// Optimizer updates parameters from a gradient map.
type Optimizer interface {
	// Step applies one gradient update. Parameters absent from the map
	// (they did not participate in the forward pass) are skipped.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears the stored gradients on every parameter. Call it
	// between steps so stale gradients never feed an update.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32
}

// getGradient looks up the gradient recorded for a parameter's raw
// tensor, or nil if none flowed to it.
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	return grads[param.Tensor().Raw()]
}
