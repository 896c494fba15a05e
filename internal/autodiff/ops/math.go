package ops

import "github.com/facevae-ml/facevae/internal/tensor"

// ExpOp records y = e^x. dy/dx = y.
type ExpOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

func NewExpOp(input, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{input: input, output: output}
}

func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	defer outputGrad.ForceNonUnique()()
	defer op.output.ForceNonUnique()()
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.output)}
}

func (op *ExpOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *ExpOp) Output() *tensor.RawTensor   { return op.output }

// LogOp records y = ln(x). dy/dx = 1/x.
type LogOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

func NewLogOp(input, output *tensor.RawTensor) *LogOp {
	return &LogOp{input: input, output: output}
}

func (op *LogOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	defer op.input.ForceNonUnique()()
	return []*tensor.RawTensor{backend.Div(outputGrad.Clone(), op.input)}
}

func (op *LogOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *LogOp) Output() *tensor.RawTensor   { return op.output }

// SqrtOp records y = √x. dy/dx = 1/(2y).
type SqrtOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

func NewSqrtOp(input, output *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{input: input, output: output}
}

func (op *SqrtOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	defer op.output.ForceNonUnique()()
	denom := backend.MulScalar(op.output.Clone(), 2)
	return []*tensor.RawTensor{backend.Div(outputGrad.Clone(), denom)}
}

func (op *SqrtOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *SqrtOp) Output() *tensor.RawTensor   { return op.output }
