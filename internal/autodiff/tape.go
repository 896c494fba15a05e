package autodiff

import (
	"github.com/facevae-ml/facevae/internal/autodiff/ops"
	"github.com/facevae-ml/facevae/internal/tensor"
)

// GradientTape records operations during the forward pass and replays
// them in reverse to compute gradients.
//
// The tape is explicit state, not a global: start recording before the
// forward pass, run Backward once, then Clear before the next step so
// stale graph nodes do not accumulate.
type GradientTape struct {
	operations []ops.Operation
	recording  bool
}

// NewGradientTape creates an empty, non-recording tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		operations: make([]ops.Operation, 0, 64),
	}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording reports whether operations are currently being recorded.
func (t *GradientTape) IsRecording() bool {
	return t.recording
}

// Record appends an operation if the tape is recording.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear drops all recorded operations. The recording flag is preserved.
func (t *GradientTape) Clear() {
	t.operations = t.operations[:0]
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return len(t.operations)
}

// Backward walks the tape in reverse, propagating outputGrad through
// every recorded operation and accumulating per-tensor gradients when a
// tensor feeds more than one operation.
//
// The returned map is keyed by the raw input tensors of the recorded
// graph; look up a parameter's gradient with its Raw() pointer.
func (t *GradientTape) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	if len(t.operations) == 0 {
		return grads
	}

	// Gradient arithmetic must not itself land on the tape.
	wasRecording := t.recording
	t.recording = false
	defer func() { t.recording = wasRecording }()

	last := t.operations[len(t.operations)-1]
	grads[last.Output()] = outputGrad

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		outGrad, ok := grads[op.Output()]
		if !ok {
			// No gradient flows through this branch of the graph.
			continue
		}
		inputGrads := op.Backward(outGrad, backend)
		for j, input := range op.Inputs() {
			if j >= len(inputGrads) || inputGrads[j] == nil {
				continue
			}
			if existing, found := grads[input]; found {
				grads[input] = backend.Add(existing, inputGrads[j])
			} else {
				grads[input] = inputGrads[j]
			}
		}
	}
	return grads
}
