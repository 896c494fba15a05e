package ops

import (
	"fmt"
	"math"

	"github.com/facevae-ml/facevae/internal/tensor"
)

func expf(x float32) float32 {
	return float32(math.Exp(float64(x)))
}

// reduceBroadcast collapses a gradient back to the shape of a forward-pass
// operand that was broadcast. Axes the operand did not have, or had as
// size 1, are summed out.
func reduceBroadcast(grad *tensor.RawTensor, target tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(target) {
		// Clone so later inplace accumulation cannot alias a shared gradient.
		return grad.Clone()
	}

	result := grad
	for len(result.Shape()) > len(target) {
		result = backend.SumDim(result, 0, false)
	}
	for d := 0; d < len(target); d++ {
		if target[d] == 1 && result.Shape()[d] > 1 {
			result = backend.SumDim(result, d, true)
		}
	}
	if !result.Shape().Equal(target) {
		panic(fmt.Sprintf("ops: cannot reduce gradient %v to operand shape %v", grad.Shape(), target))
	}
	return result
}

// negate returns -grad.
func negate(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	return backend.MulScalar(grad.Clone(), -1)
}

// mustRaw allocates a zero-initialized tensor for gradient scratch space.
func mustRaw(shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	raw, err := tensor.NewRaw(shape, dtype, tensor.CPU)
	if err != nil {
		panic(fmt.Sprintf("ops: alloc %v %s: %v", shape, dtype, err))
	}
	return raw
}
