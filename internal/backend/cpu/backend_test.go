package cpu_test

import (
	"math"
	"testing"

	"github.com/facevae-ml/facevae/internal/backend/cpu"
	"github.com/facevae-ml/facevae/internal/tensor"
)

func fromSlice(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	x, err := tensor.FromSlice(data, shape, cpu.New())
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return x.Raw()
}

func assertFloats(t *testing.T, got, want []float32, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > tol {
			t.Fatalf("element %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAdd(t *testing.T) {
	backend := cpu.New()
	a := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := fromSlice(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

	out := backend.Add(a, b)
	assertFloats(t, out.AsFloat32(), []float32{11, 22, 33, 44}, 0)
}

func TestAddBroadcast(t *testing.T) {
	backend := cpu.New()
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := fromSlice(t, []float32{10, 20, 30}, tensor.Shape{3})

	out := backend.Add(a, b)
	if !out.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("shape = %v, want [2 3]", out.Shape())
	}
	assertFloats(t, out.AsFloat32(), []float32{11, 22, 33, 14, 25, 36}, 0)
}

func TestSubMulDiv(t *testing.T) {
	backend := cpu.New()
	a := fromSlice(t, []float32{8, 6, 4, 2}, tensor.Shape{4})
	b := fromSlice(t, []float32{2, 2, 2, 2}, tensor.Shape{4})

	assertFloats(t, backend.Sub(a.Clone(), b).AsFloat32(), []float32{6, 4, 2, 0}, 0)
	assertFloats(t, backend.Mul(a.Clone(), b).AsFloat32(), []float32{16, 12, 8, 4}, 0)
	assertFloats(t, backend.Div(a.Clone(), b).AsFloat32(), []float32{4, 3, 2, 1}, 0)
}

func TestAddInplaceOnUniqueBuffer(t *testing.T) {
	backend := cpu.New()
	a := fromSlice(t, []float32{1, 2}, tensor.Shape{2})
	b := fromSlice(t, []float32{3, 4}, tensor.Shape{2})

	out := backend.Add(a, b)
	if out != a {
		t.Error("equal-shape add on a unique buffer should run in place")
	}

	// A shared buffer must not be mutated.
	c := fromSlice(t, []float32{1, 2}, tensor.Shape{2})
	view := c.Clone()
	out = backend.Add(c, b)
	if out == c {
		t.Error("add on a shared buffer must allocate a new tensor")
	}
	assertFloats(t, view.AsFloat32(), []float32{1, 2}, 0)
}

func TestMatMul(t *testing.T) {
	backend := cpu.New()
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := fromSlice(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	out := backend.MatMul(a, b)
	if !out.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("shape = %v, want [2 2]", out.Shape())
	}
	assertFloats(t, out.AsFloat32(), []float32{58, 64, 139, 154}, 0)
}

func TestReshape(t *testing.T) {
	backend := cpu.New()
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	out := backend.Reshape(a, tensor.Shape{3, 2})
	if !out.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("shape = %v, want [3 2]", out.Shape())
	}
	assertFloats(t, out.AsFloat32(), []float32{1, 2, 3, 4, 5, 6}, 0)

	defer func() {
		if recover() == nil {
			t.Error("reshape changing the element count should panic")
		}
	}()
	backend.Reshape(a, tensor.Shape{4, 2})
}

func TestTranspose(t *testing.T) {
	backend := cpu.New()
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	out := backend.Transpose(a)
	if !out.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("shape = %v, want [3 2]", out.Shape())
	}
	assertFloats(t, out.AsFloat32(), []float32{1, 4, 2, 5, 3, 6}, 0)
}

func TestTransposePermutation(t *testing.T) {
	backend := cpu.New()
	a := fromSlice(t, []float32{0, 1, 2, 3, 4, 5, 6, 7}, tensor.Shape{2, 2, 2})

	// NCH → HNC style permutation.
	out := backend.Transpose(a, 2, 0, 1)
	if !out.Shape().Equal(tensor.Shape{2, 2, 2}) {
		t.Fatalf("shape = %v", out.Shape())
	}
	// out[i,j,k] = a[j,k,i]
	assertFloats(t, out.AsFloat32(), []float32{0, 2, 4, 6, 1, 3, 5, 7}, 0)
}

func TestUnaryOps(t *testing.T) {
	backend := cpu.New()

	exp := backend.Exp(fromSlice(t, []float32{0, 1}, tensor.Shape{2}))
	assertFloats(t, exp.AsFloat32(), []float32{1, float32(math.E)}, 1e-6)

	log := backend.Log(fromSlice(t, []float32{1, float32(math.E)}, tensor.Shape{2}))
	assertFloats(t, log.AsFloat32(), []float32{0, 1}, 1e-6)

	sqrt := backend.Sqrt(fromSlice(t, []float32{4, 9}, tensor.Shape{2}))
	assertFloats(t, sqrt.AsFloat32(), []float32{2, 3}, 1e-6)
}

func TestScalarOps(t *testing.T) {
	backend := cpu.New()

	out := backend.MulScalar(fromSlice(t, []float32{1, 2, 3}, tensor.Shape{3}), 2)
	assertFloats(t, out.AsFloat32(), []float32{2, 4, 6}, 0)

	out = backend.AddScalar(fromSlice(t, []float32{1, 2, 3}, tensor.Shape{3}), -1)
	assertFloats(t, out.AsFloat32(), []float32{0, 1, 2}, 0)
}

func TestReductions(t *testing.T) {
	backend := cpu.New()
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	sum := backend.Sum(a)
	if !sum.Shape().Equal(tensor.Shape{1}) {
		t.Fatalf("Sum shape = %v, want [1]", sum.Shape())
	}
	assertFloats(t, sum.AsFloat32(), []float32{21}, 0)

	rows := backend.SumDim(a, 1, false)
	if !rows.Shape().Equal(tensor.Shape{2}) {
		t.Fatalf("SumDim shape = %v, want [2]", rows.Shape())
	}
	assertFloats(t, rows.AsFloat32(), []float32{6, 15}, 0)

	cols := backend.SumDim(a, 0, true)
	if !cols.Shape().Equal(tensor.Shape{1, 3}) {
		t.Fatalf("SumDim keepDim shape = %v, want [1 3]", cols.Shape())
	}
	assertFloats(t, cols.AsFloat32(), []float32{5, 7, 9}, 0)

	mean := backend.MeanDim(a, 1, false)
	assertFloats(t, mean.AsFloat32(), []float32{2, 5}, 1e-6)
}
