package ops

import (
	"fmt"

	"github.com/facevae-ml/facevae/internal/tensor"
)

// ReLUOp records y = max(0, x). The gradient passes through where the
// input was positive and is zero elsewhere.
type ReLUOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{input: input, output: output}
}

func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	grad := mustRaw(op.input.Shape(), op.input.DType())
	switch op.input.DType() {
	case tensor.Float32:
		in, g, dst := op.input.AsFloat32(), outputGrad.AsFloat32(), grad.AsFloat32()
		for i, v := range in {
			if v > 0 {
				dst[i] = g[i]
			}
		}
	case tensor.Float64:
		in, g, dst := op.input.AsFloat64(), outputGrad.AsFloat64(), grad.AsFloat64()
		for i, v := range in {
			if v > 0 {
				dst[i] = g[i]
			}
		}
	default:
		panic(fmt.Sprintf("ops: relu backward: unsupported dtype %s", op.input.DType()))
	}
	return []*tensor.RawTensor{grad}
}

func (op *ReLUOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *ReLUOp) Output() *tensor.RawTensor   { return op.output }

// SigmoidOp records y = 1/(1+e^-x). dy/dx = y(1-y), computed from the
// stored output.
type SigmoidOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

func NewSigmoidOp(input, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{input: input, output: output}
}

func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	grad := mustRaw(op.input.Shape(), op.input.DType())
	switch op.input.DType() {
	case tensor.Float32:
		y, g, dst := op.output.AsFloat32(), outputGrad.AsFloat32(), grad.AsFloat32()
		for i := range dst {
			dst[i] = g[i] * y[i] * (1 - y[i])
		}
	case tensor.Float64:
		y, g, dst := op.output.AsFloat64(), outputGrad.AsFloat64(), grad.AsFloat64()
		for i := range dst {
			dst[i] = g[i] * y[i] * (1 - y[i])
		}
	default:
		panic(fmt.Sprintf("ops: sigmoid backward: unsupported dtype %s", op.input.DType()))
	}
	return []*tensor.RawTensor{grad}
}

func (op *SigmoidOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *SigmoidOp) Output() *tensor.RawTensor   { return op.output }

// TanhOp records y = tanh(x). dy/dx = 1 - y².
type TanhOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

func NewTanhOp(input, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{input: input, output: output}
}

func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	grad := mustRaw(op.input.Shape(), op.input.DType())
	switch op.input.DType() {
	case tensor.Float32:
		y, g, dst := op.output.AsFloat32(), outputGrad.AsFloat32(), grad.AsFloat32()
		for i := range dst {
			dst[i] = g[i] * (1 - y[i]*y[i])
		}
	case tensor.Float64:
		y, g, dst := op.output.AsFloat64(), outputGrad.AsFloat64(), grad.AsFloat64()
		for i := range dst {
			dst[i] = g[i] * (1 - y[i]*y[i])
		}
	default:
		panic(fmt.Sprintf("ops: tanh backward: unsupported dtype %s", op.input.DType()))
	}
	return []*tensor.RawTensor{grad}
}

func (op *TanhOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *TanhOp) Output() *tensor.RawTensor   { return op.output }
