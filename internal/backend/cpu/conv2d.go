package cpu

import (
	"fmt"

	"github.com/facevae-ml/facevae/internal/parallel"
	"github.com/facevae-ml/facevae/internal/tensor"
)

// Conv2D computes a 2D convolution over NCHW input with an
// [outChannels, inChannels, kH, kW] kernel.
//
// The spatial window is lowered to a column matrix (im2col) so the
// convolution itself becomes one matrix product per batch element.
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	n, inC, h, w := convDims(input)
	outC, kInC, kh, kw := convDims(kernel)
	if inC != kInC {
		panic(fmt.Sprintf("cpu: conv2d: input has %d channels, kernel expects %d", inC, kInC))
	}
	if input.DType() != tensor.Float32 || kernel.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cpu: conv2d: unsupported dtype %s", input.DType()))
	}

	outH := (h+2*padding-kh)/stride + 1
	outW := (w+2*padding-kw)/stride + 1
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("cpu: conv2d: kernel %dx%d does not fit input %dx%d with stride=%d padding=%d",
			kh, kw, h, w, stride, padding))
	}

	out := newRaw(tensor.Shape{n, outC, outH, outW}, tensor.Float32)
	src := input.AsFloat32()
	kd := kernel.AsFloat32()
	dst := out.AsFloat32()

	colRows := inC * kh * kw
	colCols := outH * outW

	// Batch elements are independent, so each worker gets its own
	// column buffer and writes a disjoint slice of the output.
	parallel.For(n, func(b int) {
		col := make([]float32, colRows*colCols)
		im2col(col, src[b*inC*h*w:], inC, h, w, kh, kw, stride, padding, outH, outW)
		// kernel viewed as [outC, colRows] times col [colRows, colCols].
		matmul(dst[b*outC*colCols:(b+1)*outC*colCols], kd, col, outC, colRows, colCols)
	}, cpu.par)
	return out
}

// im2col unrolls every sliding window of one image into a column of the
// col matrix. Out-of-bounds (padded) positions contribute zeros.
func im2col(col, img []float32, c, h, w, kh, kw, stride, padding, outH, outW int) {
	colCols := outH * outW
	for ci := 0; ci < c; ci++ {
		for ki := 0; ki < kh; ki++ {
			for kj := 0; kj < kw; kj++ {
				row := (ci*kh+ki)*kw + kj
				dst := col[row*colCols:]
				for oi := 0; oi < outH; oi++ {
					ii := oi*stride - padding + ki
					for oj := 0; oj < outW; oj++ {
						jj := oj*stride - padding + kj
						if ii >= 0 && ii < h && jj >= 0 && jj < w {
							dst[oi*outW+oj] = img[(ci*h+ii)*w+jj]
						} else {
							dst[oi*outW+oj] = 0
						}
					}
				}
			}
		}
	}
}

// convDims validates a rank-4 tensor and unpacks its dimensions.
func convDims(t *tensor.RawTensor) (d0, d1, d2, d3 int) {
	s := t.Shape()
	if len(s) != 4 {
		panic(fmt.Sprintf("cpu: conv2d: expected rank-4 tensor, got %v", s))
	}
	return s[0], s[1], s[2], s[3]
}
