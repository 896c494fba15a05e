package ops

import "github.com/facevae-ml/facevae/internal/tensor"

// DropoutOp records y = x * mask / (1-p) with a Bernoulli keep mask drawn
// once per forward pass. The mask already folds in the 1/(1-p) inverted
// scaling, so the backward pass is a single elementwise product.
type DropoutOp struct {
	input  *tensor.RawTensor
	mask   *tensor.RawTensor // 0 or 1/(1-p) per element
	output *tensor.RawTensor
}

func NewDropoutOp(input, mask, output *tensor.RawTensor) *DropoutOp {
	return &DropoutOp{input: input, mask: mask, output: output}
}

func (op *DropoutOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	defer outputGrad.ForceNonUnique()()
	defer op.mask.ForceNonUnique()()
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.mask)}
}

func (op *DropoutOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *DropoutOp) Output() *tensor.RawTensor   { return op.output }
