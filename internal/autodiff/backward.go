package autodiff

import (
	"fmt"

	"github.com/facevae-ml/facevae/internal/tensor"
)

// BackwardCapable is satisfied by backends that carry a gradient tape.
type BackwardCapable interface {
	tensor.Backend
	GetTape() *GradientTape
}

// GetTape returns the gradient tape.
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// Backward seeds the output gradient with ones and runs the tape's
// reverse pass for t. Call it on a scalar loss; for non-scalar outputs
// the ones seed computes the gradient of the output's sum.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	tape := backend.GetTape()
	if tape.NumOps() == 0 {
		panic("autodiff: backward with empty tape (did you forget StartRecording?)")
	}

	seed, err := tensor.NewRaw(t.Shape(), t.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("autodiff: backward seed: %v", err))
	}
	switch t.DType() {
	case tensor.Float32:
		data := seed.AsFloat32()
		for i := range data {
			data[i] = 1
		}
	case tensor.Float64:
		data := seed.AsFloat64()
		for i := range data {
			data[i] = 1
		}
	default:
		panic(fmt.Sprintf("autodiff: backward: unsupported dtype %s", t.DType()))
	}

	return tape.Backward(seed, backend)
}
