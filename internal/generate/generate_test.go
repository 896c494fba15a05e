package generate_test

import (
	"bytes"
	"image/png"
	"math/rand"
	"testing"

	"github.com/facevae-ml/facevae/internal/autodiff"
	"github.com/facevae-ml/facevae/internal/backend/cpu"
	"github.com/facevae-ml/facevae/internal/generate"
	"github.com/facevae-ml/facevae/internal/tensor"
	"github.com/facevae-ml/facevae/internal/vae"
)

func rawBatch(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

func TestLatentsShapeAndSpread(t *testing.T) {
	backend := cpu.New()
	s := generate.NewSampler(16, rand.New(rand.NewSource(1)))

	z := generate.Latents(s, 5, backend)
	if !z.Shape().Equal(tensor.Shape{5, 16}) {
		t.Fatalf("shape = %v, want [5 16]", z.Shape())
	}

	var sum float64
	for _, v := range z.Raw().AsFloat32() {
		sum += float64(v)
	}
	mean := sum / float64(5*16)
	if mean < -0.5 || mean > 0.5 {
		t.Errorf("prior sample mean = %v, want near 0", mean)
	}
}

func TestLatentsPanicsOnBadCount(t *testing.T) {
	s := generate.NewSampler(4, rand.New(rand.NewSource(2)))
	defer func() {
		if recover() == nil {
			t.Error("zero samples should panic")
		}
	}()
	generate.Latents(s, 0, cpu.New())
}

func TestNewSamplerPanicsOnBadLatentDim(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("latent dimension 0 should panic")
		}
	}()
	generate.NewSampler(0, rand.New(rand.NewSource(3)))
}

func TestRenderGridLayout(t *testing.T) {
	// Two 2×2 images side by side: the first all red, the second all
	// green, with an out-of-range blue channel that must clamp.
	first := []float32{
		1, 1, 1, 1, // R
		0, 0, 0, 0, // G
		-2, -2, -2, -2, // B clamps to 0
	}
	second := []float32{
		0, 0, 0, 0,
		2, 2, 2, 2, // clamps to 1
		0, 0, 0, 0,
	}
	batch := rawBatch(t, append(first, second...), tensor.Shape{2, 3, 2, 2})

	img, err := generate.RenderGrid(batch, generate.GridConfig{Rows: 1, Cols: 2})
	if err != nil {
		t.Fatalf("RenderGrid: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 2 {
		t.Fatalf("bounds = %v, want 4×2", img.Bounds())
	}

	r, g, b, _ := img.At(0, 0).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 {
		t.Errorf("left cell = (%d, %d, %d), want pure red", r>>8, g>>8, b>>8)
	}
	r, g, b, _ = img.At(2, 1).RGBA()
	if r>>8 != 0 || g>>8 != 255 || b>>8 != 0 {
		t.Errorf("right cell = (%d, %d, %d), want pure green", r>>8, g>>8, b>>8)
	}
}

func TestRenderGridUpscale(t *testing.T) {
	batch := rawBatch(t, make([]float32, 2*3*2*2), tensor.Shape{2, 3, 2, 2})

	img, err := generate.RenderGrid(batch, generate.GridConfig{Rows: 2, Cols: 1, Upscale: 3})
	if err != nil {
		t.Fatalf("RenderGrid: %v", err)
	}
	if img.Bounds().Dx() != 6 || img.Bounds().Dy() != 12 {
		t.Errorf("bounds = %v, want 6×12", img.Bounds())
	}
}

func TestRenderGridErrors(t *testing.T) {
	wrongRank := rawBatch(t, make([]float32, 12), tensor.Shape{3, 4})
	if _, err := generate.RenderGrid(wrongRank, generate.GridConfig{Rows: 1, Cols: 1}); err == nil {
		t.Error("rank-2 batch should fail")
	}

	wrongChannels := rawBatch(t, make([]float32, 2*1*2*2), tensor.Shape{2, 1, 2, 2})
	if _, err := generate.RenderGrid(wrongChannels, generate.GridConfig{Rows: 1, Cols: 2}); err == nil {
		t.Error("single-channel batch should fail")
	}

	batch := rawBatch(t, make([]float32, 2*3*2*2), tensor.Shape{2, 3, 2, 2})
	if _, err := generate.RenderGrid(batch, generate.GridConfig{Rows: 2, Cols: 2}); err == nil {
		t.Error("2×2 grid over 2 images should fail")
	}
}

func TestWriteGridEncodesPNG(t *testing.T) {
	batch := rawBatch(t, make([]float32, 6*3*4*4), tensor.Shape{6, 3, 4, 4})

	var buf bytes.Buffer
	if err := generate.WriteGrid(&buf, batch, generate.GridConfig{Rows: 2, Cols: 3}); err != nil {
		t.Fatalf("WriteGrid: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if img.Bounds().Dx() != 12 || img.Bounds().Dy() != 8 {
		t.Errorf("decoded bounds = %v, want 12×8", img.Bounds())
	}
}

func TestDecodeFromPrior(t *testing.T) {
	// The decoder's activations need the fused backend the training
	// pipeline uses.
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(4))
	decoder := vae.NewDecoder(8, 4, rng, backend)
	s := generate.NewSampler(4, rng)

	out := generate.Decode(s, decoder, 6, backend)
	if !out.Shape().Equal(tensor.Shape{6, 3, 8, 8}) {
		t.Fatalf("shape = %v, want [6 3 8 8]", out.Shape())
	}
	for i, v := range out.Raw().AsFloat32() {
		if v <= -1 || v >= 1 {
			t.Fatalf("pixel %d = %v outside tanh range", i, v)
		}
	}
}
