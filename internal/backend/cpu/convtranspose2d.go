package cpu

import (
	"fmt"

	"github.com/facevae-ml/facevae/internal/parallel"
	"github.com/facevae-ml/facevae/internal/tensor"
)

// ConvTranspose2D computes a 2D transposed convolution (fractionally
// strided convolution) over NCHW input with an
// [inChannels, outChannels, kH, kW] kernel.
//
// Each input element is scattered through the kernel onto the output:
//
//	out[oh, ow] += in[h, w] * k[kh, kw]  where oh = h*stride - padding + kh
//
// outputPadding extends the bottom/right edge of the output so that a
// transposed convolution can exactly invert the spatial shrink of a
// strided convolution.
func (cpu *CPUBackend) ConvTranspose2D(input, kernel *tensor.RawTensor, stride, padding, outputPadding int) *tensor.RawTensor {
	n, inC, h, w := convDims(input)
	kInC, outC, kh, kw := convDims(kernel)
	if inC != kInC {
		panic(fmt.Sprintf("cpu: conv_transpose2d: input has %d channels, kernel expects %d", inC, kInC))
	}
	if input.DType() != tensor.Float32 || kernel.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cpu: conv_transpose2d: unsupported dtype %s", input.DType()))
	}
	if outputPadding >= stride {
		panic(fmt.Sprintf("cpu: conv_transpose2d: outputPadding %d must be smaller than stride %d", outputPadding, stride))
	}

	outH := (h-1)*stride - 2*padding + kh + outputPadding
	outW := (w-1)*stride - 2*padding + kw + outputPadding
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("cpu: conv_transpose2d: invalid output size %dx%d", outH, outW))
	}

	out := newRaw(tensor.Shape{n, outC, outH, outW}, tensor.Float32)
	src := input.AsFloat32()
	kd := kernel.AsFloat32()
	dst := out.AsFloat32()

	// Input channels all scatter into the same output plane, so the
	// parallel grid is (batch, output channel): each worker owns one
	// output plane and accumulates every input channel into it.
	parallel.ForBatch(n, outC, func(b, co int) {
		plane := dst[((b*outC + co) * outH * outW):((b*outC + co + 1) * outH * outW)]
		for ci := 0; ci < inC; ci++ {
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
							plane[oh*outW+ow] += iv * kd[((ci*outC+co)*kh+ki)*kw+kj]
						}
					}
				}
			}
		}
	}, cpu.par)
	return out
}
