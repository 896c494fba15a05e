package ops

import "github.com/facevae-ml/facevae/internal/tensor"

// BCEEpsilon bounds predictions away from 0 and 1 before the logs in the
// binary cross-entropy; log(0) would poison the loss and every gradient
// behind it.
const BCEEpsilon = 1e-7

// ImageBCEOp records the reconstruction loss of an image batch: the
// binary cross-entropy between predicted and target pixels, summed over
// the spatial grid and averaged over channels and batch.
//
// For clamped prediction p and target t the elementwise gradient is
//
//	d/dp = (p - t) / (p · (1-p)) · 1/(N·C)
//
// and zero wherever the clamp was active. The target is data, not a
// learnable input, so it receives no gradient.
type ImageBCEOp struct {
	pred    *tensor.RawTensor
	target  *tensor.RawTensor
	output  *tensor.RawTensor
	clamped []float32 // predictions after clamping, saved on forward
	scale   float32   // 1/(batch · channels)
}

func NewImageBCEOp(pred, target, output *tensor.RawTensor, clamped []float32, scale float32) *ImageBCEOp {
	return &ImageBCEOp{pred: pred, target: target, output: output, clamped: clamped, scale: scale}
}

func (op *ImageBCEOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	g := scalarOf(outputGrad)
	raw := op.pred.AsFloat32()
	t := op.target.AsFloat32()

	grad := mustRaw(op.pred.Shape(), tensor.Float32)
	dst := grad.AsFloat32()
	for i, p := range op.clamped {
		if raw[i] < BCEEpsilon || raw[i] > 1-BCEEpsilon {
			continue // clamp plateau, no gradient
		}
		dst[i] = float32(g) * op.scale * (p - t[i]) / (p * (1 - p))
	}
	return []*tensor.RawTensor{grad, nil}
}

func (op *ImageBCEOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.pred, op.target}
}

func (op *ImageBCEOp) Output() *tensor.RawTensor { return op.output }
