package cpu

import (
	"fmt"

	"github.com/facevae-ml/facevae/internal/tensor"
)

// newRaw allocates a zero-initialized tensor on the CPU. Shapes reaching
// the backend have already been validated by the callers, so a failure
// here is a programming error.
func newRaw(shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	raw, err := tensor.NewRaw(shape, dtype, tensor.CPU)
	if err != nil {
		panic(fmt.Sprintf("cpu: alloc %v %s: %v", shape, dtype, err))
	}
	return raw
}
