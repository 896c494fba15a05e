package nn

import (
	"fmt"
	"math/rand"

	"github.com/facevae-ml/facevae/internal/tensor"
)

// Conv2D is a 2D convolutional layer over NCHW input.
//
// Weight shape [outChannels, inChannels, k, k], bias shape [outChannels].
// Output spatial size is (in + 2·padding - k)/stride + 1.
type Conv2D[B tensor.Backend] struct {
	inChannels  int
	outChannels int
	kernelSize  int
	stride      int
	padding     int

	weight *Parameter[B]
	bias   *Parameter[B]

	backend B
}

// NewConv2D creates a convolutional layer with a square kernel, Xavier
// weights drawn from rng and zero bias.
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding int, rng *rand.Rand, backend B) *Conv2D[B] {
	if inChannels <= 0 || outChannels <= 0 {
		panic(fmt.Sprintf("conv2d: invalid channels in=%d out=%d", inChannels, outChannels))
	}
	if kernelSize <= 0 || stride <= 0 || padding < 0 {
		panic(fmt.Sprintf("conv2d: invalid geometry kernel=%d stride=%d padding=%d", kernelSize, stride, padding))
	}

	fanIn := inChannels * kernelSize * kernelSize
	fanOut := outChannels * kernelSize * kernelSize
	weight := NewParameter("conv2d.weight",
		Xavier(fanIn, fanOut, tensor.Shape{outChannels, inChannels, kernelSize, kernelSize}, rng, backend))
	bias := NewParameter("conv2d.bias", Zeros(tensor.Shape{outChannels}, backend))

	return &Conv2D[B]{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  kernelSize,
		stride:      stride,
		padding:     padding,
		weight:      weight,
		bias:        bias,
		backend:     backend,
	}
}

// Forward convolves the input and adds the per-channel bias.
func (c *Conv2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("conv2d: expected NCHW input, got %v", shape))
	}
	if shape[1] != c.inChannels {
		panic(fmt.Sprintf("conv2d: input has %d channels, layer expects %d", shape[1], c.inChannels))
	}

	raw := c.backend.Conv2D(input.Raw(), c.weight.Tensor().Raw(), c.stride, c.padding)
	out := tensor.New[float32, B](raw, c.backend)

	// Bias broadcasts as [1, C, 1, 1]; the reshape is recorded so the
	// gradient lands on the original [C] parameter.
	return out.Add(c.bias.Tensor().Reshape(1, c.outChannels, 1, 1))
}

// Parameters returns [weight, bias].
func (c *Conv2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{c.weight, c.bias}
}

func (c *Conv2D[B]) String() string {
	return fmt.Sprintf("Conv2D(in=%d, out=%d, kernel=%d, stride=%d, padding=%d)",
		c.inChannels, c.outChannels, c.kernelSize, c.stride, c.padding)
}
