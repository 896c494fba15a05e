package ops

import "github.com/facevae-ml/facevae/internal/tensor"

// BatchNormOp records y = gamma * (x - mean) / √(var + eps) + beta over
// NCHW input, normalizing per channel across batch and spatial positions.
//
// The backward pass uses the standard closed form. With N the number of
// elements per channel and x̂ the normalized input:
//
//	dβ = Σ dy
//	dγ = Σ dy·x̂
//	dx = γ/(N·√(var+eps)) · (N·dy - Σdy - x̂·Σ(dy·x̂))
type BatchNormOp struct {
	input  *tensor.RawTensor // x [N,C,H,W]
	gamma  *tensor.RawTensor // [C]
	beta   *tensor.RawTensor // [C]
	output *tensor.RawTensor
	xhat   *tensor.RawTensor // normalized input, saved on forward
	invStd []float32         // 1/√(var+eps) per channel
}

func NewBatchNormOp(input, gamma, beta, output, xhat *tensor.RawTensor, invStd []float32) *BatchNormOp {
	return &BatchNormOp{input: input, gamma: gamma, beta: beta, output: output, xhat: xhat, invStd: invStd}
}

func (op *BatchNormOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.input.Shape()
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	count := float32(n * h * w)

	g := outputGrad.AsFloat32()
	xhat := op.xhat.AsFloat32()
	gamma := op.gamma.AsFloat32()

	dInput := mustRaw(shape, tensor.Float32)
	dGamma := mustRaw(op.gamma.Shape(), tensor.Float32)
	dBeta := mustRaw(op.beta.Shape(), tensor.Float32)
	dx := dInput.AsFloat32()
	dg := dGamma.AsFloat32()
	db := dBeta.AsFloat32()

	for ci := 0; ci < c; ci++ {
		var sumDy, sumDyXhat float32
		for b := 0; b < n; b++ {
			base := ((b*c + ci) * h) * w
			for i := 0; i < h*w; i++ {
				sumDy += g[base+i]
				sumDyXhat += g[base+i] * xhat[base+i]
			}
		}
		dg[ci] = sumDyXhat
		db[ci] = sumDy

		k := gamma[ci] * op.invStd[ci] / count
		for b := 0; b < n; b++ {
			base := ((b*c + ci) * h) * w
			for i := 0; i < h*w; i++ {
				dx[base+i] = k * (count*g[base+i] - sumDy - xhat[base+i]*sumDyXhat)
			}
		}
	}
	return []*tensor.RawTensor{dInput, dGamma, dBeta}
}

func (op *BatchNormOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input, op.gamma, op.beta}
}

func (op *BatchNormOp) Output() *tensor.RawTensor { return op.output }
