package nn_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facevae-ml/facevae/internal/autodiff"
	"github.com/facevae-ml/facevae/internal/backend/cpu"
	"github.com/facevae-ml/facevae/internal/nn"
	"github.com/facevae-ml/facevae/internal/tensor"
)

type adBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func newBackend() adBackend {
	return autodiff.New(cpu.New())
}

func randTensor(t *testing.T, backend adBackend, shape tensor.Shape, rng *rand.Rand) *tensor.Tensor[float32, adBackend] {
	t.Helper()
	data := make([]float32, shape.NumElements())
	for i := range data {
		data[i] = float32(rng.NormFloat64())
	}
	x, err := tensor.FromSlice(data, shape, backend)
	require.NoError(t, err)
	return x
}

func TestLinearForward(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(1))
	layer := nn.NewLinear(3, 2, rng, backend)

	// Overwrite the Xavier weights with known values.
	// Weight is stored [out, in]; forward computes x @ Wᵀ + b.
	w := layer.Parameters()[0].Tensor().Raw().AsFloat32()
	copy(w, []float32{1, 0, 0, 0, 1, 0})
	b := layer.Parameters()[1].Tensor().Raw().AsFloat32()
	copy(b, []float32{10, 20})

	x, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{1, 3}, backend)
	require.NoError(t, err)

	out := layer.Forward(x)
	require.True(t, out.Shape().Equal(tensor.Shape{1, 2}))
	assert.InDelta(t, 11, out.At(0, 0), 1e-6)
	assert.InDelta(t, 22, out.At(0, 1), 1e-6)
}

func TestConv2DForwardShape(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(1))
	layer := nn.NewConv2D(3, 32, 3, 2, 1, rng, backend)

	out := layer.Forward(randTensor(t, backend, tensor.Shape{2, 3, 60, 60}, rng))
	assert.True(t, out.Shape().Equal(tensor.Shape{2, 32, 30, 30}), "shape = %v", out.Shape())
	assert.Len(t, layer.Parameters(), 2)
}

func TestConvTranspose2DForwardShape(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(2))
	layer := nn.NewConvTranspose2D(128, 64, 3, 2, 1, 1, rng, backend)

	out := layer.Forward(randTensor(t, backend, tensor.Shape{2, 128, 15, 15}, rng))
	assert.True(t, out.Shape().Equal(tensor.Shape{2, 64, 30, 30}), "shape = %v", out.Shape())
}

func TestBatchNorm2DTrainNormalizes(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(3))
	layer := nn.NewBatchNorm2D(2, backend)

	x := randTensor(t, backend, tensor.Shape{4, 2, 3, 3}, rng)
	out := layer.Forward(x)

	// With gamma 1 and beta 0 each output channel has roughly zero mean
	// and unit variance.
	data := out.Raw().AsFloat32()
	for c := 0; c < 2; c++ {
		var sum, sq float64
		count := 0
		for b := 0; b < 4; b++ {
			base := ((b*2 + c) * 3) * 3
			for i := 0; i < 9; i++ {
				v := float64(data[base+i])
				sum += v
				sq += v * v
				count++
			}
		}
		mean := sum / float64(count)
		variance := sq/float64(count) - mean*mean
		assert.InDelta(t, 0, mean, 1e-5, "channel %d mean", c)
		assert.InDelta(t, 1, variance, 1e-2, "channel %d variance", c)
	}

	// Running statistics moved away from their init toward the batch's.
	runningMean, runningVar := layer.RunningStats()
	moved := false
	for c := range runningMean {
		if runningMean[c] != 0 || runningVar[c] != 1 {
			moved = true
		}
	}
	assert.True(t, moved, "running statistics should update in training mode")
}

func TestBatchNorm2DEvalUsesRunningStats(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(4))
	layer := nn.NewBatchNorm2D(2, backend)

	// Fresh layer in eval mode: running mean 0, var 1, gamma 1, beta 0,
	// so the output is the input scaled by 1/sqrt(1+eps).
	layer.SetTraining(false)
	x := randTensor(t, backend, tensor.Shape{1, 2, 2, 2}, rng)
	out := layer.Forward(x)

	scale := 1 / math.Sqrt(1+1e-3)
	in := x.Raw().AsFloat32()
	got := out.Raw().AsFloat32()
	for i := range got {
		assert.InDelta(t, float64(in[i])*scale, float64(got[i]), 1e-5)
	}
}

func TestDropoutModes(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(5))
	layer := nn.NewDropout[adBackend](0.5, rng)

	data := make([]float32, 1000)
	for i := range data {
		data[i] = 1
	}
	x, err := tensor.FromSlice(data, tensor.Shape{1000}, backend)
	require.NoError(t, err)

	out := layer.Forward(x)
	zeros, doubled := 0, 0
	for _, v := range out.Raw().AsFloat32() {
		switch v {
		case 0:
			zeros++
		case 2:
			doubled++
		default:
			t.Fatalf("unexpected dropout output %v", v)
		}
	}
	assert.Greater(t, zeros, 350, "roughly half the activations should drop")
	assert.Greater(t, doubled, 350, "survivors should be scaled by 1/(1-p)")

	// Eval mode is the identity.
	layer.SetTraining(false)
	out = layer.Forward(x)
	for _, v := range out.Raw().AsFloat32() {
		require.Equal(t, float32(1), v)
	}
}

func TestFlatten(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(6))
	layer := nn.NewFlatten[adBackend]()

	out := layer.Forward(randTensor(t, backend, tensor.Shape{2, 3, 4, 5}, rng))
	assert.True(t, out.Shape().Equal(tensor.Shape{2, 60}), "shape = %v", out.Shape())
}

func TestSequentialPropagatesTraining(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(7))
	seq := nn.NewSequential[adBackend](
		nn.NewDropout[adBackend](0.5, rng),
		nn.NewReLU[adBackend](),
	)
	seq.SetTraining(false)

	data := make([]float32, 100)
	for i := range data {
		data[i] = 1
	}
	x, err := tensor.FromSlice(data, tensor.Shape{100}, backend)
	require.NoError(t, err)

	// With dropout disabled the chain is the identity on positive input.
	out := seq.Forward(x)
	for _, v := range out.Raw().AsFloat32() {
		require.Equal(t, float32(1), v)
	}
}

func TestSequentialCollectsParameters(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(3))
	seq := nn.NewSequential[adBackend](
		nn.NewLinear(4, 3, rng, backend),
		nn.NewReLU[adBackend](),
		nn.NewLinear(3, 2, rng, backend),
	)
	assert.Len(t, seq.Parameters(), 4)
}

func TestActivationRequiresCapableBackend(t *testing.T) {
	// A bare CPU backend has no fused ReLU kernel.
	layer := nn.NewReLU[*cpu.CPUBackend]()
	x, err := tensor.FromSlice([]float32{1, -1}, tensor.Shape{2}, cpu.New())
	require.NoError(t, err)

	assert.Panics(t, func() {
		layer.Forward(x)
	})
}

func TestParameterZeroGrad(t *testing.T) {
	backend := newBackend()
	w, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	p := nn.NewParameter("w", w)

	g, err := tensor.FromSlice([]float32{0.1, 0.2}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	p.SetGrad(g)
	require.NotNil(t, p.Grad())

	p.ZeroGrad()
	assert.Nil(t, p.Grad())
}

func TestImageBCELossValue(t *testing.T) {
	backend := newBackend()
	loss := nn.NewImageBCELoss[adBackend]()

	// Uniform 0.5 predictions pay ln 2 per pixel; averaged over
	// channels and batch, summed over the 2x2 grid.
	pred, err := tensor.FromSlice([]float32{
		0.5, 0.5, 0.5, 0.5,
		0.5, 0.5, 0.5, 0.5,
		0.5, 0.5, 0.5, 0.5,
	}, tensor.Shape{1, 3, 2, 2}, backend)
	require.NoError(t, err)
	target, err := tensor.FromSlice(make([]float32, 12), tensor.Shape{1, 3, 2, 2}, backend)
	require.NoError(t, err)

	out := loss.Forward(pred, target)
	require.True(t, out.Shape().Equal(tensor.Shape{1}))
	assert.InDelta(t, 4*math.Ln2, out.Raw().AsFloat32()[0], 1e-5)
}

func TestImageBCELossShapeMismatchPanics(t *testing.T) {
	backend := newBackend()
	loss := nn.NewImageBCELoss[adBackend]()

	pred, err := tensor.FromSlice(make([]float32, 12), tensor.Shape{1, 3, 2, 2}, backend)
	require.NoError(t, err)
	target, err := tensor.FromSlice(make([]float32, 3), tensor.Shape{1, 3, 1, 1}, backend)
	require.NoError(t, err)

	assert.Panics(t, func() {
		loss.Forward(pred, target)
	})
}

func TestGaussianKLLossValue(t *testing.T) {
	backend := newBackend()
	loss := nn.NewGaussianKLLoss[adBackend]()

	// The standard normal itself has zero divergence from the prior.
	mean, err := tensor.FromSlice(make([]float32, 4), tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	logVar, err := tensor.FromSlice(make([]float32, 4), tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	out := loss.Forward(mean, logVar)
	require.True(t, out.Shape().Equal(tensor.Shape{1}))
	assert.InDelta(t, 0, out.Raw().AsFloat32()[0], 1e-6)

	// Shifting the mean to 1 costs 0.5 per latent dimension.
	mean, err = tensor.FromSlice([]float32{1, 1, 1, 1}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	out = loss.Forward(mean, logVar)
	assert.InDelta(t, 1, out.Raw().AsFloat32()[0], 1e-6)
}
