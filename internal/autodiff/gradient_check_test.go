package autodiff_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/facevae-ml/facevae/internal/autodiff"
	"github.com/facevae-ml/facevae/internal/backend/cpu"
	"github.com/facevae-ml/facevae/internal/tensor"
)

type adBackend = autodiff.AutodiffBackend[*cpu.CPUBackend]

func newBackend() *adBackend {
	return autodiff.New(cpu.New())
}

func raw(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	x, err := tensor.FromSlice(data, shape, cpu.New())
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return x.Raw()
}

func randRaw(t *testing.T, shape tensor.Shape, rng *rand.Rand, lo, hi float32) *tensor.RawTensor {
	t.Helper()
	data := make([]float32, shape.NumElements())
	for i := range data {
		data[i] = lo + rng.Float32()*(hi-lo)
	}
	return raw(t, data, shape)
}

func onesSeed(t *testing.T, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	seed, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	data := seed.AsFloat32()
	for i := range data {
		data[i] = 1
	}
	return seed
}

// analyticGradient records forward on a fresh tape and returns the
// gradient that flows to x.
func analyticGradient(t *testing.T, backend *adBackend, forward func() *tensor.RawTensor, x *tensor.RawTensor) []float32 {
	t.Helper()
	tape := backend.Tape()
	tape.Clear()
	tape.StartRecording()
	loss := forward()
	tape.StopRecording()

	grads := tape.Backward(onesSeed(t, loss.Shape()), backend)
	tape.Clear()

	g := grads[x]
	if g == nil {
		t.Fatal("no gradient flowed to the input")
	}
	return g.AsFloat32()
}

// checkGradient compares the taped gradient of a scalar-valued forward
// function against central finite differences on every element of x.
func checkGradient(t *testing.T, backend *adBackend, forward func() *tensor.RawTensor, x *tensor.RawTensor, tol float64) {
	t.Helper()
	grad := analyticGradient(t, backend, forward, x)

	const eps = 1e-3
	data := x.AsFloat32()
	for i := range data {
		orig := data[i]

		data[i] = orig + eps
		plus := float64(forward().AsFloat32()[0])
		data[i] = orig - eps
		minus := float64(forward().AsFloat32()[0])
		data[i] = orig

		numeric := (plus - minus) / (2 * eps)
		if math.Abs(float64(grad[i])-numeric) > tol*(1+math.Abs(numeric)) {
			t.Errorf("element %d: analytic %v, numeric %v", i, grad[i], numeric)
		}
	}
}

func TestGradientMul(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(1))
	x := randRaw(t, tensor.Shape{2, 3}, rng, -2, 2)
	y := randRaw(t, tensor.Shape{2, 3}, rng, -2, 2)

	forward := func() *tensor.RawTensor {
		return backend.Sum(backend.Mul(x, y))
	}
	checkGradient(t, backend, forward, x, 1e-2)
	checkGradient(t, backend, forward, y, 1e-2)
}

func TestGradientDiv(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(2))
	x := randRaw(t, tensor.Shape{2, 2}, rng, -2, 2)
	y := randRaw(t, tensor.Shape{2, 2}, rng, 1, 3)

	forward := func() *tensor.RawTensor {
		return backend.Sum(backend.Div(x, y))
	}
	checkGradient(t, backend, forward, x, 1e-2)
	checkGradient(t, backend, forward, y, 1e-2)
}

func TestGradientMatMul(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(3))
	a := randRaw(t, tensor.Shape{2, 3}, rng, -1, 1)
	b := randRaw(t, tensor.Shape{3, 4}, rng, -1, 1)

	forward := func() *tensor.RawTensor {
		return backend.Sum(backend.MatMul(a, b))
	}
	checkGradient(t, backend, forward, a, 1e-2)
	checkGradient(t, backend, forward, b, 1e-2)
}

func TestGradientActivations(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(4))
	// Keep values away from ReLU's kink at zero.
	data := make([]float32, 6)
	for i := range data {
		v := rng.Float32()*2 + 0.5
		if i%2 == 0 {
			v = -v
		}
		data[i] = v
	}
	x := raw(t, data, tensor.Shape{6})

	checkGradient(t, backend, func() *tensor.RawTensor {
		return backend.Sum(backend.ReLU(x))
	}, x, 1e-2)

	checkGradient(t, backend, func() *tensor.RawTensor {
		return backend.Sum(backend.Sigmoid(x))
	}, x, 1e-2)

	checkGradient(t, backend, func() *tensor.RawTensor {
		return backend.Sum(backend.Tanh(x))
	}, x, 1e-2)
}

func TestGradientUnaryMath(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(5))
	x := randRaw(t, tensor.Shape{4}, rng, 0.5, 2)

	checkGradient(t, backend, func() *tensor.RawTensor {
		return backend.Sum(backend.Exp(x))
	}, x, 1e-2)

	checkGradient(t, backend, func() *tensor.RawTensor {
		return backend.Sum(backend.Log(x))
	}, x, 1e-2)

	checkGradient(t, backend, func() *tensor.RawTensor {
		return backend.Sum(backend.Sqrt(x))
	}, x, 1e-2)
}

func TestGradientConv2D(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(6))
	input := randRaw(t, tensor.Shape{1, 2, 4, 4}, rng, -1, 1)
	kernel := randRaw(t, tensor.Shape{3, 2, 3, 3}, rng, -1, 1)

	forward := func() *tensor.RawTensor {
		return backend.Sum(backend.Conv2D(input, kernel, 2, 1))
	}
	checkGradient(t, backend, forward, input, 2e-2)
	checkGradient(t, backend, forward, kernel, 2e-2)
}

func TestGradientConvTranspose2D(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(7))
	input := randRaw(t, tensor.Shape{1, 2, 3, 3}, rng, -1, 1)
	kernel := randRaw(t, tensor.Shape{2, 3, 3, 3}, rng, -1, 1)

	forward := func() *tensor.RawTensor {
		return backend.Sum(backend.ConvTranspose2D(input, kernel, 2, 1, 1))
	}
	checkGradient(t, backend, forward, input, 2e-2)
	checkGradient(t, backend, forward, kernel, 2e-2)
}

func TestGradientReparameterize(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(8))
	mean := randRaw(t, tensor.Shape{2, 4}, rng, -1, 1)
	logVar := randRaw(t, tensor.Shape{2, 4}, rng, -1, 1)
	noise := randRaw(t, tensor.Shape{2, 4}, rng, -1, 1)

	forward := func() *tensor.RawTensor {
		return backend.Sum(backend.Reparameterize(mean, logVar, noise))
	}
	checkGradient(t, backend, forward, mean, 1e-2)
	checkGradient(t, backend, forward, logVar, 1e-2)
}

func TestGradientImageBCE(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(9))
	pred := randRaw(t, tensor.Shape{2, 1, 2, 2}, rng, 0.2, 0.8)
	targetData := make([]float32, 8)
	for i := range targetData {
		if rng.Float64() < 0.5 {
			targetData[i] = 1
		}
	}
	target := raw(t, targetData, tensor.Shape{2, 1, 2, 2})

	forward := func() *tensor.RawTensor {
		return backend.ImageBCE(pred, target)
	}
	checkGradient(t, backend, forward, pred, 1e-2)
}

func TestGradientImageBCEClampPlateau(t *testing.T) {
	backend := newBackend()
	pred := raw(t, []float32{-0.5, 1.5, 0.5, 0.5}, tensor.Shape{1, 1, 2, 2})
	target := raw(t, []float32{0, 1, 1, 0}, tensor.Shape{1, 1, 2, 2})

	grad := analyticGradient(t, backend, func() *tensor.RawTensor {
		return backend.ImageBCE(pred, target)
	}, pred)

	// Predictions outside the clamp range sit on a plateau.
	if grad[0] != 0 || grad[1] != 0 {
		t.Errorf("clamped elements should get zero gradient, got %v, %v", grad[0], grad[1])
	}
	if grad[2] == 0 || grad[3] == 0 {
		t.Error("in-range elements should get nonzero gradient")
	}
}

func TestGradientGaussianKL(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(10))
	mean := randRaw(t, tensor.Shape{3, 4}, rng, -1, 1)
	logVar := randRaw(t, tensor.Shape{3, 4}, rng, -1, 1)

	forward := func() *tensor.RawTensor {
		return backend.GaussianKL(mean, logVar)
	}
	checkGradient(t, backend, forward, mean, 1e-2)
	checkGradient(t, backend, forward, logVar, 1e-2)
}

func TestGradientBatchNorm(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(11))
	x := randRaw(t, tensor.Shape{2, 2, 2, 2}, rng, -1, 1)
	gamma := raw(t, []float32{1.5, 0.5}, tensor.Shape{2})
	beta := raw(t, []float32{0.1, -0.2}, tensor.Shape{2})

	forward := func() *tensor.RawTensor {
		out, _, _ := backend.BatchNorm(x, gamma, beta, 1e-3)
		// Square the output so the input gradient is not annihilated
		// by normalization (d sum(xhat)/dx is ~0 by construction).
		return backend.Sum(backend.Mul(out, out))
	}
	checkGradient(t, backend, forward, gamma, 2e-2)
	checkGradient(t, backend, forward, beta, 2e-2)
	checkGradient(t, backend, forward, x, 5e-2)
}

func TestGradientDropoutMatchesMask(t *testing.T) {
	backend := newBackend()
	x := raw(t, []float32{1, 1, 1, 1, 1, 1, 1, 1}, tensor.Shape{8})

	tape := backend.Tape()
	tape.Clear()
	tape.StartRecording()
	out := backend.Dropout(x, 0.5, rand.New(rand.NewSource(12)))
	loss := backend.Sum(out)
	tape.StopRecording()

	grads := tape.Backward(onesSeed(t, loss.Shape()), backend)
	tape.Clear()

	g := grads[x].AsFloat32()
	o := out.AsFloat32()
	for i := range g {
		// With unit inputs the output equals the mask, and so does the
		// gradient.
		if g[i] != o[i] {
			t.Errorf("element %d: grad %v, output %v", i, g[i], o[i])
		}
	}
}

func TestGradientShapeOps(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(13))
	x := randRaw(t, tensor.Shape{2, 3}, rng, -1, 1)

	checkGradient(t, backend, func() *tensor.RawTensor {
		return backend.Sum(backend.Reshape(x, tensor.Shape{3, 2}))
	}, x, 1e-2)

	checkGradient(t, backend, func() *tensor.RawTensor {
		return backend.Sum(backend.Transpose(x))
	}, x, 1e-2)

	checkGradient(t, backend, func() *tensor.RawTensor {
		return backend.Sum(backend.MeanDim(x, 1, false))
	}, x, 1e-2)
}
