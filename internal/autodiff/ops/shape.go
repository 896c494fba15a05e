package ops

import "github.com/facevae-ml/facevae/internal/tensor"

// ReshapeOp records a change of shape. Data is untouched, so the backward
// pass only reshapes the gradient back to the input's shape.
//
// Recording reshapes matters for parameters: a conv bias viewed as
// [1, C, 1, 1] for broadcasting must still receive its gradient as [C].
type ReshapeOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

func NewReshapeOp(input, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{input: input, output: output}
}

func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	defer outputGrad.ForceNonUnique()()
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.input.Shape())}
}

func (op *ReshapeOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *ReshapeOp) Output() *tensor.RawTensor   { return op.output }

// TransposeOp records an axis permutation. The backward pass applies the
// inverse permutation to the gradient.
type TransposeOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	axes   []int
}

func NewTransposeOp(input, output *tensor.RawTensor, axes []int) *TransposeOp {
	if len(axes) == 0 {
		rank := len(input.Shape())
		axes = make([]int, rank)
		for i := range axes {
			axes[i] = rank - 1 - i
		}
	}
	return &TransposeOp{input: input, output: output, axes: axes}
}

func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	defer outputGrad.ForceNonUnique()()
	inverse := make([]int, len(op.axes))
	for i, ax := range op.axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{backend.Transpose(outputGrad, inverse...)}
}

func (op *TransposeOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *TransposeOp) Output() *tensor.RawTensor   { return op.output }
