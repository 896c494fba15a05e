package nn

import (
	"fmt"
	"math/rand"

	"github.com/facevae-ml/facevae/internal/tensor"
)

// ConvTranspose2D is a 2D transposed convolutional layer over NCHW
// input, the upsampling counterpart of Conv2D.
//
// Weight shape [inChannels, outChannels, k, k], bias shape [outChannels].
// Output spatial size is (in-1)·stride - 2·padding + k + outputPadding;
// with k=3, stride=2, padding=1, outputPadding=1 each dimension exactly
// doubles, undoing a stride-2 convolution of the same geometry.
type ConvTranspose2D[B tensor.Backend] struct {
	inChannels    int
	outChannels   int
	kernelSize    int
	stride        int
	padding       int
	outputPadding int

	weight *Parameter[B]
	bias   *Parameter[B]

	backend B
}

// NewConvTranspose2D creates a transposed convolutional layer with a
// square kernel, Xavier weights drawn from rng and zero bias.
func NewConvTranspose2D[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding, outputPadding int, rng *rand.Rand, backend B) *ConvTranspose2D[B] {
	if inChannels <= 0 || outChannels <= 0 {
		panic(fmt.Sprintf("conv_transpose2d: invalid channels in=%d out=%d", inChannels, outChannels))
	}
	if kernelSize <= 0 || stride <= 0 || padding < 0 || outputPadding < 0 {
		panic(fmt.Sprintf("conv_transpose2d: invalid geometry kernel=%d stride=%d padding=%d outputPadding=%d",
			kernelSize, stride, padding, outputPadding))
	}
	if outputPadding >= stride {
		panic(fmt.Sprintf("conv_transpose2d: outputPadding %d must be smaller than stride %d", outputPadding, stride))
	}

	fanIn := inChannels * kernelSize * kernelSize
	fanOut := outChannels * kernelSize * kernelSize
	weight := NewParameter("conv_transpose2d.weight",
		Xavier(fanIn, fanOut, tensor.Shape{inChannels, outChannels, kernelSize, kernelSize}, rng, backend))
	bias := NewParameter("conv_transpose2d.bias", Zeros(tensor.Shape{outChannels}, backend))

	return &ConvTranspose2D[B]{
		inChannels:    inChannels,
		outChannels:   outChannels,
		kernelSize:    kernelSize,
		stride:        stride,
		padding:       padding,
		outputPadding: outputPadding,
		weight:        weight,
		bias:          bias,
		backend:       backend,
	}
}

// Forward upsamples the input and adds the per-channel bias.
func (c *ConvTranspose2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("conv_transpose2d: expected NCHW input, got %v", shape))
	}
	if shape[1] != c.inChannels {
		panic(fmt.Sprintf("conv_transpose2d: input has %d channels, layer expects %d", shape[1], c.inChannels))
	}

	raw := c.backend.ConvTranspose2D(input.Raw(), c.weight.Tensor().Raw(),
		c.stride, c.padding, c.outputPadding)
	out := tensor.New[float32, B](raw, c.backend)

	return out.Add(c.bias.Tensor().Reshape(1, c.outChannels, 1, 1))
}

// Parameters returns [weight, bias].
func (c *ConvTranspose2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{c.weight, c.bias}
}

func (c *ConvTranspose2D[B]) String() string {
	return fmt.Sprintf("ConvTranspose2D(in=%d, out=%d, kernel=%d, stride=%d, padding=%d, outputPadding=%d)",
		c.inChannels, c.outChannels, c.kernelSize, c.stride, c.padding, c.outputPadding)
}
