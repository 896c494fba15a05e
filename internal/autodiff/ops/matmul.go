package ops

import "github.com/facevae-ml/facevae/internal/tensor"

// MatMulOp records C = A @ B for rank-2 operands.
//
// dL/dA = dL/dC @ Bᵀ and dL/dB = Aᵀ @ dL/dC.
type MatMulOp struct {
	a, b   *tensor.RawTensor
	output *tensor.RawTensor
}

func NewMatMulOp(a, b, output *tensor.RawTensor) *MatMulOp {
	return &MatMulOp{a: a, b: b, output: output}
}

func (op *MatMulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	defer outputGrad.ForceNonUnique()()
	defer op.a.ForceNonUnique()()
	defer op.b.ForceNonUnique()()

	gradA := backend.MatMul(outputGrad, backend.Transpose(op.b))
	gradB := backend.MatMul(backend.Transpose(op.a), outputGrad)
	return []*tensor.RawTensor{gradA, gradB}
}

func (op *MatMulOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *MatMulOp) Output() *tensor.RawTensor   { return op.output }
