// Package nn provides the neural network building blocks: layers,
// activations, parameter containers and weight initialization.
//
// Modules are composable and generic over the backend, so the same model
// definition runs on a plain CPU backend for inference and on an
// autodiff-wrapped backend for training.
package nn

import (
	"github.com/facevae-ml/facevae/internal/tensor"
)

// Module is the interface shared by all network components.
type Module[B tensor.Backend] interface {
	// Forward computes the module's output for the given input.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns the module's trainable parameters, including
	// those of nested modules. Parameterless modules return nil.
	Parameters() []*Parameter[B]
}

// TrainableModule is implemented by modules whose forward pass differs
// between training and inference (dropout, batch normalization).
type TrainableModule interface {
	// SetTraining switches the module between training and eval mode.
	SetTraining(training bool)
}
