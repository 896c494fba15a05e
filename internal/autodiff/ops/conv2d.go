package ops

import "github.com/facevae-ml/facevae/internal/tensor"

// Conv2DOp records output = Conv2D(input, kernel, stride, padding).
//
// The input gradient is the output gradient scattered back through the
// kernel; the kernel gradient correlates the input with the output
// gradient. Both closed forms live in the backend.
type Conv2DOp struct {
	input   *tensor.RawTensor
	kernel  *tensor.RawTensor
	output  *tensor.RawTensor
	stride  int
	padding int
}

func NewConv2DOp(input, kernel, output *tensor.RawTensor, stride, padding int) *Conv2DOp {
	return &Conv2DOp{input: input, kernel: kernel, output: output, stride: stride, padding: padding}
}

func (op *Conv2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inputGrad := backend.Conv2DInputBackward(op.input, op.kernel, outputGrad, op.stride, op.padding)
	kernelGrad := backend.Conv2DKernelBackward(op.input, op.kernel, outputGrad, op.stride, op.padding)
	return []*tensor.RawTensor{inputGrad, kernelGrad}
}

func (op *Conv2DOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input, op.kernel}
}

func (op *Conv2DOp) Output() *tensor.RawTensor { return op.output }

// ConvTranspose2DOp records output = ConvTranspose2D(input, kernel,
// stride, padding, outputPadding).
//
// A transposed convolution scatters on the forward pass, so its input
// gradient is a plain gather (the roles of Conv2D's passes swap).
type ConvTranspose2DOp struct {
	input   *tensor.RawTensor
	kernel  *tensor.RawTensor
	output  *tensor.RawTensor
	stride  int
	padding int
}

func NewConvTranspose2DOp(input, kernel, output *tensor.RawTensor, stride, padding int) *ConvTranspose2DOp {
	return &ConvTranspose2DOp{input: input, kernel: kernel, output: output, stride: stride, padding: padding}
}

func (op *ConvTranspose2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inputGrad := backend.ConvTranspose2DInputBackward(op.input, op.kernel, outputGrad, op.stride, op.padding)
	kernelGrad := backend.ConvTranspose2DKernelBackward(op.input, op.kernel, outputGrad, op.stride, op.padding)
	return []*tensor.RawTensor{inputGrad, kernelGrad}
}

func (op *ConvTranspose2DOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input, op.kernel}
}

func (op *ConvTranspose2DOp) Output() *tensor.RawTensor { return op.output }
