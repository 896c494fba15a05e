package ops

import "github.com/facevae-ml/facevae/internal/tensor"

// GaussianKLOp records the KL divergence between the approximate
// posterior N(mean, e^logVar) and the standard normal prior, averaged
// over the batch:
//
//	KL = 1/N · Σ_n  -½ · Σ_d (1 + logVar - mean² - e^logVar)
//
// Elementwise gradients (scaled by 1/N):
//
//	d/dmean   = mean
//	d/dlogVar = ½ · (e^logVar - 1)
type GaussianKLOp struct {
	mean   *tensor.RawTensor
	logVar *tensor.RawTensor
	output *tensor.RawTensor
}

func NewGaussianKLOp(mean, logVar, output *tensor.RawTensor) *GaussianKLOp {
	return &GaussianKLOp{mean: mean, logVar: logVar, output: output}
}

func (op *GaussianKLOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	g := float32(scalarOf(outputGrad))
	batch := float32(op.mean.Shape()[0])
	m := op.mean.AsFloat32()
	lv := op.logVar.AsFloat32()

	dMean := mustRaw(op.mean.Shape(), tensor.Float32)
	dLogVar := mustRaw(op.logVar.Shape(), tensor.Float32)
	dm := dMean.AsFloat32()
	dlv := dLogVar.AsFloat32()
	for i := range m {
		dm[i] = g * m[i] / batch
		dlv[i] = g * 0.5 * (expf(lv[i]) - 1) / batch
	}
	return []*tensor.RawTensor{dMean, dLogVar}
}

func (op *GaussianKLOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.mean, op.logVar}
}

func (op *GaussianKLOp) Output() *tensor.RawTensor { return op.output }
