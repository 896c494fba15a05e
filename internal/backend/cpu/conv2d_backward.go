package cpu

import (
	"fmt"

	"github.com/facevae-ml/facevae/internal/parallel"
	"github.com/facevae-ml/facevae/internal/tensor"
)

// Conv2DInputBackward computes the gradient of a convolution with respect
// to its input: each output gradient is scattered back through the kernel
// onto the input positions that produced it.
func (cpu *CPUBackend) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	n, inC, h, w := convDims(input)
	outC, _, kh, kw := convDims(kernel)
	_, gradC, outH, outW := convDims(grad)
	if gradC != outC {
		panic(fmt.Sprintf("cpu: conv2d input backward: grad has %d channels, kernel produces %d", gradC, outC))
	}

	out := newRaw(input.Shape(), tensor.Float32)
	dIn := out.AsFloat32()
	kd := kernel.AsFloat32()
	g := grad.AsFloat32()

	// Each (batch, input channel) plane of dIn is written by exactly
	// one worker; all output channels accumulate into it.
	parallel.ForBatch(n, inC, func(b, ci int) {
		plane := dIn[((b*inC + ci) * h * w):((b*inC + ci + 1) * h * w)]
		for co := 0; co < outC; co++ {
			for oi := 0; oi < outH; oi++ {
				for oj := 0; oj < outW; oj++ {
					gv := g[((b*outC+co)*outH+oi)*outW+oj]
					if gv == 0 {
						continue
					}
					for ki := 0; ki < kh; ki++ {
						ih := oi*stride - padding + ki
						if ih < 0 || ih >= h {
							continue
						}
						for kj := 0; kj < kw; kj++ {
							iw := oj*stride - padding + kj
							if iw < 0 || iw >= w {
								continue
							}
							plane[ih*w+iw] += gv * kd[((co*inC+ci)*kh+ki)*kw+kj]
						}
					}
				}
			}
		}
	}, cpu.par)
	return out
}

// Conv2DKernelBackward computes the gradient of a convolution with respect
// to its kernel by correlating the input with the output gradient.
func (cpu *CPUBackend) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	n, inC, h, w := convDims(input)
	outC, _, kh, kw := convDims(kernel)
	_, _, outH, outW := convDims(grad)

	out := newRaw(kernel.Shape(), tensor.Float32)
	dK := out.AsFloat32()
	src := input.AsFloat32()
	g := grad.AsFloat32()

	// The kernel gradient sums over the batch, so the parallel grid is
	// (output channel, input channel): each worker owns one kh*kw block.
	parallel.ForBatch(outC, inC, func(co, ci int) {
		block := dK[((co*inC + ci) * kh * kw):((co*inC + ci + 1) * kh * kw)]
		for b := 0; b < n; b++ {
			for oi := 0; oi < outH; oi++ {
				for oj := 0; oj < outW; oj++ {
					gv := g[((b*outC+co)*outH+oi)*outW+oj]
					if gv == 0 {
						continue
					}
					for ki := 0; ki < kh; ki++ {
						ih := oi*stride - padding + ki
						if ih < 0 || ih >= h {
							continue
						}
						for kj := 0; kj < kw; kj++ {
							iw := oj*stride - padding + kj
							if iw < 0 || iw >= w {
								continue
							}
							block[ki*kw+kj] += gv * src[((b*inC+ci)*h+ih)*w+iw]
						}
					}
				}
			}
		}
	}, cpu.par)
	return out
}
