package ops

import "github.com/facevae-ml/facevae/internal/tensor"

// AddOp records c = a + b.
//
// d(a+b)/da = 1 and d(a+b)/db = 1, so the output gradient flows to both
// operands, reduced over any broadcast axes.
type AddOp struct {
	a, b   *tensor.RawTensor
	output *tensor.RawTensor
}

func NewAddOp(a, b, output *tensor.RawTensor) *AddOp {
	return &AddOp{a: a, b: b, output: output}
}

func (op *AddOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, op.a.Shape(), backend),
		reduceBroadcast(outputGrad, op.b.Shape(), backend),
	}
}

func (op *AddOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *AddOp) Output() *tensor.RawTensor   { return op.output }

// SubOp records c = a - b.
type SubOp struct {
	a, b   *tensor.RawTensor
	output *tensor.RawTensor
}

func NewSubOp(a, b, output *tensor.RawTensor) *SubOp {
	return &SubOp{a: a, b: b, output: output}
}

func (op *SubOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, op.a.Shape(), backend),
		reduceBroadcast(negate(outputGrad, backend), op.b.Shape(), backend),
	}
}

func (op *SubOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *SubOp) Output() *tensor.RawTensor   { return op.output }

// MulOp records c = a * b (elementwise).
//
// d(a*b)/da = b and d(a*b)/db = a.
type MulOp struct {
	a, b   *tensor.RawTensor
	output *tensor.RawTensor
}

func NewMulOp(a, b, output *tensor.RawTensor) *MulOp {
	return &MulOp{a: a, b: b, output: output}
}

func (op *MulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	defer outputGrad.ForceNonUnique()()
	defer op.a.ForceNonUnique()()
	defer op.b.ForceNonUnique()()
	gradA := backend.Mul(outputGrad, op.b)
	gradB := backend.Mul(outputGrad, op.a)
	return []*tensor.RawTensor{
		reduceBroadcast(gradA, op.a.Shape(), backend),
		reduceBroadcast(gradB, op.b.Shape(), backend),
	}
}

func (op *MulOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *MulOp) Output() *tensor.RawTensor   { return op.output }

// DivOp records c = a / b (elementwise).
//
// d(a/b)/da = 1/b and d(a/b)/db = -a/b².
type DivOp struct {
	a, b   *tensor.RawTensor
	output *tensor.RawTensor
}

func NewDivOp(a, b, output *tensor.RawTensor) *DivOp {
	return &DivOp{a: a, b: b, output: output}
}

func (op *DivOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	defer outputGrad.ForceNonUnique()()
	defer op.a.ForceNonUnique()()
	defer op.b.ForceNonUnique()()
	defer op.output.ForceNonUnique()()

	gradA := backend.Div(outputGrad.Clone(), op.b)
	// d/db = -a/b² = -(a/b)/b = -output/b
	gradB := backend.Mul(outputGrad, negate(backend.Div(op.output.Clone(), op.b), backend))
	return []*tensor.RawTensor{
		reduceBroadcast(gradA, op.a.Shape(), backend),
		reduceBroadcast(gradB, op.b.Shape(), backend),
	}
}

func (op *DivOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *DivOp) Output() *tensor.RawTensor   { return op.output }
