package autodiff_test

import (
	"testing"

	"github.com/facevae-ml/facevae/internal/autodiff"
	"github.com/facevae-ml/facevae/internal/backend/cpu"
	"github.com/facevae-ml/facevae/internal/tensor"
)

func TestTapeRecordsOnlyWhileRecording(t *testing.T) {
	backend := newBackend()
	tape := backend.Tape()
	x := raw(t, []float32{1, 2}, tensor.Shape{2})
	y := raw(t, []float32{3, 4}, tensor.Shape{2})

	backend.Add(x, y)
	if tape.NumOps() != 0 {
		t.Fatalf("NumOps = %d before StartRecording, want 0", tape.NumOps())
	}

	tape.StartRecording()
	backend.Add(x, y)
	backend.Mul(x, y)
	if tape.NumOps() != 2 {
		t.Fatalf("NumOps = %d, want 2", tape.NumOps())
	}
	tape.StopRecording()

	backend.Add(x, y)
	if tape.NumOps() != 2 {
		t.Fatalf("NumOps = %d after StopRecording, want 2", tape.NumOps())
	}

	tape.Clear()
	if tape.NumOps() != 0 {
		t.Fatalf("NumOps = %d after Clear, want 0", tape.NumOps())
	}
}

func TestTapeAccumulatesFanOut(t *testing.T) {
	backend := newBackend()
	tape := backend.Tape()
	x := raw(t, []float32{2, 3}, tensor.Shape{2})

	tape.Clear()
	tape.StartRecording()
	// x feeds both operands: d(x+x)/dx = 2.
	sum := backend.Sum(backend.Add(x, x))
	tape.StopRecording()

	grads := tape.Backward(onesSeed(t, sum.Shape()), backend)
	tape.Clear()

	g := grads[x].AsFloat32()
	for i, v := range g {
		if v != 2 {
			t.Errorf("element %d: grad = %v, want 2", i, v)
		}
	}
}

func TestTapeBackwardLeavesInputsIntact(t *testing.T) {
	backend := newBackend()
	tape := backend.Tape()
	x := raw(t, []float32{1, 2}, tensor.Shape{2})
	y := raw(t, []float32{3, 4}, tensor.Shape{2})

	tape.Clear()
	tape.StartRecording()
	backend.Sum(backend.Mul(x, y))
	tape.StopRecording()
	tape.Backward(onesSeed(t, tensor.Shape{1}), backend)
	tape.Clear()

	if x.AsFloat32()[0] != 1 || x.AsFloat32()[1] != 2 {
		t.Errorf("x mutated: %v", x.AsFloat32())
	}
	if y.AsFloat32()[0] != 3 || y.AsFloat32()[1] != 4 {
		t.Errorf("y mutated: %v", y.AsFloat32())
	}
}

func TestBackwardHelper(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	tape.StartRecording()

	x, err := tensor.FromSlice([]float32{3}, tensor.Shape{1}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	y := x.Mul(x) // y = x²

	grads := autodiff.Backward(y, backend)
	tape.StopRecording()
	tape.Clear()

	got := grads[x.Raw()].AsFloat32()[0]
	if got != 6 {
		t.Errorf("d(x²)/dx at 3 = %v, want 6", got)
	}
}
