package vae_test

import (
	"math"
	"math/rand"
	"testing"

	"go.uber.org/zap"

	"github.com/facevae-ml/facevae/internal/autodiff"
	"github.com/facevae-ml/facevae/internal/backend/cpu"
	"github.com/facevae-ml/facevae/internal/dataset"
	"github.com/facevae-ml/facevae/internal/optim"
	"github.com/facevae-ml/facevae/internal/tensor"
	"github.com/facevae-ml/facevae/internal/vae"
)

type adBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func newBackend() adBackend {
	return autodiff.New(cpu.New())
}

// randImages builds a [n, 3, size, size] batch with pixels in [0, 1].
func randImages(t *testing.T, backend adBackend, n, size int, rng *rand.Rand) *tensor.Tensor[float32, adBackend] {
	t.Helper()
	data := make([]float32, n*3*size*size)
	for i := range data {
		data[i] = rng.Float32()
	}
	x, err := tensor.FromSlice(data, tensor.Shape{n, 3, size, size}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return x
}

func TestEncoderShapes(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(1))
	enc := vae.NewEncoder(12, 4, rng, backend)

	mean, logVar, z := enc.Encode(randImages(t, backend, 2, 12, rng))
	want := tensor.Shape{2, 4}
	if !mean.Shape().Equal(want) || !logVar.Shape().Equal(want) || !z.Shape().Equal(want) {
		t.Errorf("shapes = %v, %v, %v; want %v", mean.Shape(), logVar.Shape(), z.Shape(), want)
	}
	if enc.LatentDim() != 4 {
		t.Errorf("LatentDim = %d, want 4", enc.LatentDim())
	}
}

func TestEncoderRejectsBadImageSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("image size not divisible by 4 should panic")
		}
	}()
	vae.NewEncoder(50, 4, rand.New(rand.NewSource(1)), newBackend())
}

func TestDecoderShapesAndRange(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(2))
	dec := vae.NewDecoder(12, 4, rng, backend)
	dec.SetTraining(false)

	zData := make([]float32, 2*4)
	for i := range zData {
		zData[i] = float32(rng.NormFloat64())
	}
	z, err := tensor.FromSlice(zData, tensor.Shape{2, 4}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	out := dec.Decode(z)
	if !out.Shape().Equal(tensor.Shape{2, 3, 12, 12}) {
		t.Fatalf("shape = %v, want [2 3 12 12]", out.Shape())
	}
	for i, v := range out.Raw().AsFloat32() {
		if v <= -1 || v >= 1 {
			t.Fatalf("output %d = %v outside tanh range (-1, 1)", i, v)
		}
	}
}

func TestSamplingMatchesReparameterization(t *testing.T) {
	backend := newBackend()
	s := vae.NewSampling(rand.New(rand.NewSource(3)), backend)

	// With logVar → -inf the variance vanishes and z collapses to the
	// mean; a strongly negative logVar gets close enough.
	mean, err := tensor.FromSlice([]float32{1, -2, 3, 0}, tensor.Shape{2, 2}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	logVar, err := tensor.FromSlice([]float32{-30, -30, -30, -30}, tensor.Shape{2, 2}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	z := s.Sample(mean, logVar)
	m := mean.Raw().AsFloat32()
	for i, v := range z.Raw().AsFloat32() {
		if math.Abs(float64(v-m[i])) > 1e-4 {
			t.Errorf("element %d: z = %v, want ≈ mean %v", i, v, m[i])
		}
	}
}

func TestSamplingDrawsFreshNoise(t *testing.T) {
	backend := newBackend()
	s := vae.NewSampling(rand.New(rand.NewSource(4)), backend)

	mean, _ := tensor.FromSlice(make([]float32, 8), tensor.Shape{2, 4}, backend)
	logVar, _ := tensor.FromSlice(make([]float32, 8), tensor.Shape{2, 4}, backend)

	a := s.Sample(mean, logVar).Raw().AsFloat32()
	b := s.Sample(mean, logVar).Raw().AsFloat32()
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("two samples from N(0, I) should differ")
	}
}

func TestVAEForwardShapes(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(5))
	model := vae.New(12, 4, rng, backend)

	mean, logVar, recon := model.Forward(randImages(t, backend, 2, 12, rng))
	if !mean.Shape().Equal(tensor.Shape{2, 4}) || !logVar.Shape().Equal(tensor.Shape{2, 4}) {
		t.Errorf("latent shapes = %v, %v; want [2 4]", mean.Shape(), logVar.Shape())
	}
	if !recon.Shape().Equal(tensor.Shape{2, 3, 12, 12}) {
		t.Errorf("reconstruction shape = %v, want [2 3 12 12]", recon.Shape())
	}
}

func TestSeededModelsAreIdentical(t *testing.T) {
	a := vae.New(12, 4, rand.New(rand.NewSource(42)), newBackend())
	b := vae.New(12, 4, rand.New(rand.NewSource(42)), newBackend())

	pa, pb := a.Parameters(), b.Parameters()
	if len(pa) != len(pb) {
		t.Fatalf("parameter counts differ: %d vs %d", len(pa), len(pb))
	}
	for i := range pa {
		wa := pa[i].Tensor().Raw().AsFloat32()
		wb := pb[i].Tensor().Raw().AsFloat32()
		for j := range wa {
			if wa[j] != wb[j] {
				t.Fatalf("parameter %d (%s) differs at %d: %v vs %v",
					i, pa[i].Name(), j, wa[j], wb[j])
			}
		}
	}

	c := vae.New(12, 4, rand.New(rand.NewSource(7)), newBackend())
	first := pa[0].Tensor().Raw().AsFloat32()
	other := c.Parameters()[0].Tensor().Raw().AsFloat32()
	same := true
	for j := range first {
		if first[j] != other[j] {
			same = false
			break
		}
	}
	if same {
		t.Error("models with different seeds should not share weights")
	}
}

func TestTrainStepUpdatesParameters(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(6))
	model := vae.New(12, 4, rng, backend)
	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001})

	before := append([]float32(nil), model.Parameters()[0].Tensor().Raw().AsFloat32()...)

	batch := randImages(t, backend, 4, 12, rng)
	metrics := model.TrainStep(batch, opt)

	if math.IsNaN(float64(metrics.Total)) || math.IsInf(float64(metrics.Total), 0) {
		t.Fatalf("loss = %v", metrics.Total)
	}
	if metrics.Reconstruction <= 0 {
		t.Errorf("reconstruction loss = %v, want > 0", metrics.Reconstruction)
	}
	if metrics.KL < 0 {
		t.Errorf("KL divergence = %v, want >= 0", metrics.KL)
	}

	after := model.Parameters()[0].Tensor().Raw().AsFloat32()
	changed := false
	for i, v := range after {
		if v != before[i] {
			changed = true
			break
		}
	}
	if !changed {
		t.Error("training step left the first conv kernel untouched")
	}

	// The tape must not leak between steps.
	if backend.Tape().NumOps() != 0 {
		t.Errorf("tape holds %d ops after TrainStep, want 0", backend.Tape().NumOps())
	}
}

func TestTrainStepReducesLoss(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(7))
	model := vae.New(12, 4, rng, backend)
	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.01})

	batch := randImages(t, backend, 4, 12, rng)

	first := model.TrainStep(batch, opt)
	var last vae.StepMetrics
	for i := 0; i < 10; i++ {
		last = model.TrainStep(batch, opt)
	}
	if float64(last.Total) >= float64(first.Total) {
		t.Errorf("loss after 10 steps on one batch = %v, started at %v", last.Total, first.Total)
	}
}

func TestTrainStepRequiresAutodiffBackend(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	plain := cpu.New()
	model := vae.New(12, 4, rng, plain)
	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{})

	data := make([]float32, 4*3*12*12)
	batch, err := tensor.FromSlice(data, tensor.Shape{4, 3, 12, 12}, plain)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("TrainStep on a plain backend should panic")
		}
	}()
	model.TrainStep(batch, opt)
}

func TestTrainerFit(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(9))
	model := vae.New(12, 4, rng, backend)
	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001})

	data := make([]float32, 6*3*12*12)
	for i := range data {
		data[i] = rng.Float32()
	}
	ds, err := dataset.FromSlice(data, 6, 3, 12, 12)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	trainer := vae.NewTrainer(model, opt, vae.TrainerConfig{
		Epochs:    2,
		BatchSize: 4,
	}, rng, zap.NewNop())

	metrics := trainer.Fit(ds)
	if metrics.Epoch != 2 {
		t.Errorf("final epoch = %d, want 2", metrics.Epoch)
	}
	if math.IsNaN(metrics.Total) {
		t.Error("epoch loss is NaN")
	}
}

func TestMeanMetric(t *testing.T) {
	var m vae.Mean
	if m.Value() != 0 {
		t.Errorf("empty mean = %v, want 0", m.Value())
	}

	m.Update(2, 3) // three samples at 2
	m.Update(6, 1) // one sample at 6
	if got := m.Value(); math.Abs(got-3) > 1e-9 {
		t.Errorf("weighted mean = %v, want 3", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("mean after reset = %v, want 0", m.Value())
	}
}
