package ops

import (
	"fmt"

	"github.com/facevae-ml/facevae/internal/tensor"
)

// SumOp records y = Σx over all elements. The scalar gradient broadcasts
// back to every input position.
type SumOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

func NewSumOp(input, output *tensor.RawTensor) *SumOp {
	return &SumOp{input: input, output: output}
}

func (op *SumOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{fillLike(op.input, scalarOf(outputGrad))}
}

func (op *SumOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *SumOp) Output() *tensor.RawTensor   { return op.output }

// SumDimOp records a sum along one axis. Each input position along the
// reduced axis receives the gradient of its group.
type SumDimOp struct {
	input   *tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	scale   float64 // 1 for sum, 1/n for mean
	keepDim bool
}

func NewSumDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{input: input, output: output, dim: dim, scale: 1, keepDim: keepDim}
}

// NewMeanDimOp records a mean along one axis; the backward pass divides
// the spread gradient by the group size.
func NewMeanDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	n := input.Shape()[dim]
	return &SumDimOp{input: input, output: output, dim: dim, scale: 1 / float64(n), keepDim: keepDim}
}

func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.input.Shape()
	grad := mustRaw(shape, op.input.DType())

	outer, inner := 1, 1
	for d := 0; d < op.dim; d++ {
		outer *= shape[d]
	}
	for d := op.dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}
	n := shape[op.dim]

	switch op.input.DType() {
	case tensor.Float32:
		spreadAxis(grad.AsFloat32(), outputGrad.AsFloat32(), outer, n, inner, float32(op.scale))
	case tensor.Float64:
		spreadAxis(grad.AsFloat64(), outputGrad.AsFloat64(), outer, n, inner, op.scale)
	default:
		panic(fmt.Sprintf("ops: reduce backward: unsupported dtype %s", op.input.DType()))
	}
	return []*tensor.RawTensor{grad}
}

func (op *SumDimOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *SumDimOp) Output() *tensor.RawTensor   { return op.output }

// spreadAxis replicates the reduced gradient along the collapsed axis.
func spreadAxis[T ~float32 | ~float64](dst, g []T, outer, n, inner int, scale T) {
	for o := 0; o < outer; o++ {
		for j := 0; j < n; j++ {
			base := (o*n + j) * inner
			gBase := o * inner
			for i := 0; i < inner; i++ {
				dst[base+i] = g[gBase+i] * scale
			}
		}
	}
}

// fillLike allocates a tensor shaped like ref holding v everywhere.
func fillLike(ref *tensor.RawTensor, v float64) *tensor.RawTensor {
	out := mustRaw(ref.Shape(), ref.DType())
	switch ref.DType() {
	case tensor.Float32:
		data := out.AsFloat32()
		for i := range data {
			data[i] = float32(v)
		}
	case tensor.Float64:
		data := out.AsFloat64()
		for i := range data {
			data[i] = v
		}
	default:
		panic(fmt.Sprintf("ops: fill: unsupported dtype %s", ref.DType()))
	}
	return out
}

// scalarOf reads a single-element tensor as float64.
func scalarOf(t *tensor.RawTensor) float64 {
	switch t.DType() {
	case tensor.Float32:
		return float64(t.AsFloat32()[0])
	case tensor.Float64:
		return t.AsFloat64()[0]
	default:
		panic(fmt.Sprintf("ops: scalar: unsupported dtype %s", t.DType()))
	}
}
