package cpu

import (
	"fmt"

	"github.com/facevae-ml/facevae/internal/parallel"
	"github.com/facevae-ml/facevae/internal/tensor"
)

// ConvTranspose2DInputBackward computes the gradient of a transposed
// convolution with respect to its input. This is the forward gather: each
// input position collects the output gradients it scattered to.
func (cpu *CPUBackend) ConvTranspose2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	n, inC, h, w := convDims(input)
	kInC, outC, kh, kw := convDims(kernel)
	_, gradC, outH, outW := convDims(grad)
	if inC != kInC {
		panic(fmt.Sprintf("cpu: conv_transpose2d input backward: input has %d channels, kernel expects %d", inC, kInC))
	}
	if gradC != outC {
		panic(fmt.Sprintf("cpu: conv_transpose2d input backward: grad has %d channels, kernel produces %d", gradC, outC))
	}

	out := newRaw(input.Shape(), tensor.Float32)
	dIn := out.AsFloat32()
	kd := kernel.AsFloat32()
	g := grad.AsFloat32()

	parallel.ForBatch(n, inC, func(b, ci int) {
		plane := dIn[((b*inC + ci) * h * w):((b*inC + ci + 1) * h * w)]
		for ih := 0; ih < h; ih++ {
			for iw := 0; iw < w; iw++ {
				var acc float32
				for co := 0; co < outC; co++ {
					for ki := 0; ki < kh; ki++ {
						oh := ih*stride - padding + ki
						if oh < 0 || oh >= outH {
							continue
						}
						for kj := 0; kj < kw; kj++ {
							ow := iw*stride - padding + kj
							if ow < 0 || ow >= outW {
								continue
							}
							acc += g[((b*outC+co)*outH+oh)*outW+ow] * kd[((ci*outC+co)*kh+ki)*kw+kj]
						}
					}
				}
				plane[ih*w+iw] = acc
			}
		}
	}, cpu.par)
	return out
}

// ConvTranspose2DKernelBackward computes the gradient of a transposed
// convolution with respect to its kernel.
func (cpu *CPUBackend) ConvTranspose2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	n, inC, h, w := convDims(input)
	_, outC, kh, kw := convDims(kernel)
	_, _, outH, outW := convDims(grad)

	out := newRaw(kernel.Shape(), tensor.Float32)
	dK := out.AsFloat32()
	src := input.AsFloat32()
	g := grad.AsFloat32()

	// dK sums over the batch; give each worker one (inC, outC) block.
	parallel.ForBatch(inC, outC, func(ci, co int) {
		block := dK[((ci*outC + co) * kh * kw):((ci*outC + co + 1) * kh * kw)]
		for b := 0; b < n; b++ {
			for ih := 0; ih < h; ih++ {
				for iw := 0; iw < w; iw++ {
					iv := src[((b*inC+ci)*h+ih)*w+iw]
					if iv == 0 {
						continue
					}
					for ki := 0; ki < kh; ki++ {
						oh := ih*stride - padding + ki
						if oh < 0 || oh >= outH {
							continue
						}
						for kj := 0; kj < kw; kj++ {
							ow := iw*stride - padding + kj
							if ow < 0 || ow >= outW {
								continue
							}
							block[ki*kw+kj] += iv * g[((b*outC+co)*outH+oh)*outW+ow]
						}
					}
				}
			}
		}
	}, cpu.par)
	return out
}
