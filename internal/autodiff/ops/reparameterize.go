package ops

import "github.com/facevae-ml/facevae/internal/tensor"

// ReparameterizeOp records z = mean + e^(logVar/2) * eps for noise eps
// drawn outside the graph. Moving the randomness into the leaf eps is
// what makes the sample differentiable with respect to mean and logVar:
//
//	dz/dmean   = 1
//	dz/dlogVar = ½ · eps · e^(logVar/2)
//
// eps itself receives no gradient.
type ReparameterizeOp struct {
	mean   *tensor.RawTensor
	logVar *tensor.RawTensor
	eps    *tensor.RawTensor
	output *tensor.RawTensor
	std    []float32 // e^(logVar/2), saved on forward
}

func NewReparameterizeOp(mean, logVar, eps, output *tensor.RawTensor, std []float32) *ReparameterizeOp {
	return &ReparameterizeOp{mean: mean, logVar: logVar, eps: eps, output: output, std: std}
}

func (op *ReparameterizeOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	g := outputGrad.AsFloat32()
	eps := op.eps.AsFloat32()

	dLogVar := mustRaw(op.logVar.Shape(), tensor.Float32)
	dlv := dLogVar.AsFloat32()
	for i := range dlv {
		dlv[i] = 0.5 * g[i] * eps[i] * op.std[i]
	}
	return []*tensor.RawTensor{outputGrad.Clone(), dLogVar, nil}
}

func (op *ReparameterizeOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.mean, op.logVar, op.eps}
}

func (op *ReparameterizeOp) Output() *tensor.RawTensor { return op.output }
