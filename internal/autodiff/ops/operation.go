// Package ops defines the differentiable operations recorded on the
// gradient tape.
//
// Each operation captures the raw tensors of its forward pass and knows
// how to turn the gradient of its output into gradients for its inputs.
// The tape walks recorded operations in reverse and accumulates those
// input gradients with the chain rule.
package ops

import "github.com/facevae-ml/facevae/internal/tensor"

// Operation is a node of the recorded computation graph.
type Operation interface {
	// Backward computes gradients for the operation's inputs given the
	// gradient of its output. The returned slice is parallel to Inputs();
	// a nil entry means no gradient flows to that input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the forward-pass input tensors.
	Inputs() []*tensor.RawTensor

	// Output returns the forward-pass output tensor.
	Output() *tensor.RawTensor
}
