package autodiff

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/facevae-ml/facevae/internal/autodiff/ops"
	"github.com/facevae-ml/facevae/internal/tensor"
)

// This file holds the operations the wrapped backend has no kernel for.
// Their forwards run here on the raw float32 buffers and their backwards
// are the fused ops recorded on the tape. Layers reach these methods
// through interface assertions on their backend type parameter.

// ReLU computes max(0, x) and records it.
func (b *AutodiffBackend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	out := alloc(x.Shape())
	src, dst := x.AsFloat32(), out.AsFloat32()
	for i, v := range src {
		if v > 0 {
			dst[i] = v
		}
	}
	b.tape.Record(ops.NewReLUOp(x, out))
	return out
}

// Sigmoid computes 1/(1+e^-x) and records it.
func (b *AutodiffBackend[B]) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	out := alloc(x.Shape())
	src, dst := x.AsFloat32(), out.AsFloat32()
	for i, v := range src {
		dst[i] = float32(1 / (1 + math.Exp(-float64(v))))
	}
	b.tape.Record(ops.NewSigmoidOp(x, out))
	return out
}

// Tanh computes tanh(x) and records it.
func (b *AutodiffBackend[B]) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	out := alloc(x.Shape())
	src, dst := x.AsFloat32(), out.AsFloat32()
	for i, v := range src {
		dst[i] = float32(math.Tanh(float64(v)))
	}
	b.tape.Record(ops.NewTanhOp(x, out))
	return out
}

// Dropout zeroes each element with probability p and scales survivors by
// 1/(1-p), so activations keep their expected magnitude and inference
// needs no rescaling. Callers skip the call entirely in eval mode.
func (b *AutodiffBackend[B]) Dropout(x *tensor.RawTensor, p float64, rng *rand.Rand) *tensor.RawTensor {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("autodiff: dropout probability %v out of [0, 1)", p))
	}
	out := alloc(x.Shape())
	mask := alloc(x.Shape())
	src, dst, m := x.AsFloat32(), out.AsFloat32(), mask.AsFloat32()
	keep := float32(1 / (1 - p))
	for i, v := range src {
		if rng.Float64() >= p {
			m[i] = keep
			dst[i] = v * keep
		}
	}
	b.tape.Record(ops.NewDropoutOp(x, mask, out))
	return out
}

// BatchNorm normalizes NCHW input per channel with the batch statistics
// and applies the learned scale and shift. It returns the batch mean and
// variance so the calling layer can update its running estimates.
func (b *AutodiffBackend[B]) BatchNorm(x, gamma, beta *tensor.RawTensor, eps float64) (out *tensor.RawTensor, mean, variance []float32) {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("autodiff: batchnorm expects NCHW input, got %v", shape))
	}
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	if gamma.Shape().NumElements() != c || beta.Shape().NumElements() != c {
		panic(fmt.Sprintf("autodiff: batchnorm scale/shift must have %d elements", c))
	}
	count := float32(n * h * w)

	src := x.AsFloat32()
	g := gamma.AsFloat32()
	bt := beta.AsFloat32()

	out = alloc(shape)
	xhat := alloc(shape)
	dst, xh := out.AsFloat32(), xhat.AsFloat32()
	mean = make([]float32, c)
	variance = make([]float32, c)
	invStd := make([]float32, c)

	for ci := 0; ci < c; ci++ {
		var sum float32
		for bi := 0; bi < n; bi++ {
			base := ((bi*c + ci) * h) * w
			for i := 0; i < h*w; i++ {
				sum += src[base+i]
			}
		}
		mu := sum / count

		var sq float32
		for bi := 0; bi < n; bi++ {
			base := ((bi*c + ci) * h) * w
			for i := 0; i < h*w; i++ {
				d := src[base+i] - mu
				sq += d * d
			}
		}
		v := sq / count

		mean[ci] = mu
		variance[ci] = v
		invStd[ci] = float32(1 / math.Sqrt(float64(v)+eps))

		for bi := 0; bi < n; bi++ {
			base := ((bi*c + ci) * h) * w
			for i := 0; i < h*w; i++ {
				nx := (src[base+i] - mu) * invStd[ci]
				xh[base+i] = nx
				dst[base+i] = g[ci]*nx + bt[ci]
			}
		}
	}

	b.tape.Record(ops.NewBatchNormOp(x, gamma, beta, out, xhat, invStd))
	return out, mean, variance
}

// Reparameterize draws z = mean + e^(logVar/2)·eps for externally
// sampled standard-normal noise eps, keeping the sample differentiable
// with respect to the distribution parameters.
func (b *AutodiffBackend[B]) Reparameterize(mean, logVar, eps *tensor.RawTensor) *tensor.RawTensor {
	if !mean.Shape().Equal(logVar.Shape()) || !mean.Shape().Equal(eps.Shape()) {
		panic(fmt.Sprintf("autodiff: reparameterize shape mismatch: mean %v, logVar %v, eps %v",
			mean.Shape(), logVar.Shape(), eps.Shape()))
	}
	out := alloc(mean.Shape())
	m, lv, e, dst := mean.AsFloat32(), logVar.AsFloat32(), eps.AsFloat32(), out.AsFloat32()
	std := make([]float32, len(m))
	for i := range dst {
		std[i] = float32(math.Exp(0.5 * float64(lv[i])))
		dst[i] = m[i] + std[i]*e[i]
	}
	b.tape.Record(ops.NewReparameterizeOp(mean, logVar, eps, out, std))
	return out
}

// ImageBCE computes the reconstruction loss of an image batch: pixelwise
// binary cross-entropy summed over the spatial grid, averaged over
// channels, then averaged over the batch. Predictions are clamped to
// [ε, 1-ε] before the logs.
func (b *AutodiffBackend[B]) ImageBCE(pred, target *tensor.RawTensor) *tensor.RawTensor {
	if !pred.Shape().Equal(target.Shape()) {
		panic(fmt.Sprintf("autodiff: bce shape mismatch: %v vs %v", pred.Shape(), target.Shape()))
	}
	shape := pred.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("autodiff: bce expects NCHW input, got %v", shape))
	}
	scale := float32(1) / float32(shape[0]*shape[1])

	p := pred.AsFloat32()
	t := target.AsFloat32()
	clamped := make([]float32, len(p))

	var sum float64
	for i, v := range p {
		pc := v
		if pc < ops.BCEEpsilon {
			pc = ops.BCEEpsilon
		} else if pc > 1-ops.BCEEpsilon {
			pc = 1 - ops.BCEEpsilon
		}
		clamped[i] = pc
		sum -= float64(t[i])*math.Log(float64(pc)) + float64(1-t[i])*math.Log(float64(1-pc))
	}

	out := alloc(tensor.Shape{1})
	out.AsFloat32()[0] = float32(sum) * scale
	b.tape.Record(ops.NewImageBCEOp(pred, target, out, clamped, scale))
	return out
}

// GaussianKL computes the batch-mean KL divergence from N(mean,
// e^logVar) to the standard normal prior.
func (b *AutodiffBackend[B]) GaussianKL(mean, logVar *tensor.RawTensor) *tensor.RawTensor {
	if !mean.Shape().Equal(logVar.Shape()) {
		panic(fmt.Sprintf("autodiff: kl shape mismatch: %v vs %v", mean.Shape(), logVar.Shape()))
	}
	if len(mean.Shape()) != 2 {
		panic(fmt.Sprintf("autodiff: kl expects [batch, latent] input, got %v", mean.Shape()))
	}
	batch := float64(mean.Shape()[0])

	m, lv := mean.AsFloat32(), logVar.AsFloat32()
	var sum float64
	for i := range m {
		sum += 1 + float64(lv[i]) - float64(m[i])*float64(m[i]) - math.Exp(float64(lv[i]))
	}

	out := alloc(tensor.Shape{1})
	out.AsFloat32()[0] = float32(-0.5 * sum / batch)
	b.tape.Record(ops.NewGaussianKLOp(mean, logVar, out))
	return out
}

// alloc creates a zeroed float32 tensor for a fused-op result.
func alloc(shape tensor.Shape) *tensor.RawTensor {
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		panic(fmt.Sprintf("autodiff: alloc %v: %v", shape, err))
	}
	return raw
}
