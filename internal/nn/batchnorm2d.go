package nn

import (
	"fmt"
	"math"

	"github.com/facevae-ml/facevae/internal/tensor"
)

// BatchNormBackend is implemented by backends with a fused batch
// normalization kernel that also reports the batch statistics.
type BatchNormBackend interface {
	BatchNorm(x, gamma, beta *tensor.RawTensor, eps float64) (out *tensor.RawTensor, mean, variance []float32)
}

// BatchNorm2D normalizes each channel of NCHW input.
//
// In training mode it normalizes with the current batch's statistics and
// folds them into exponential running estimates; in eval mode it
// normalizes with the running estimates, so single samples and full
// batches produce identical outputs.
type BatchNorm2D[B tensor.Backend] struct {
	numFeatures int
	eps         float64
	momentum    float64
	training    bool

	gamma *Parameter[B] // scale, initialized to ones
	beta  *Parameter[B] // shift, initialized to zeros

	runningMean []float32
	runningVar  []float32

	backend B
}

// NewBatchNorm2D creates a batch normalization layer for numFeatures
// channels with eps 1e-3 and running-statistics momentum 0.99.
func NewBatchNorm2D[B tensor.Backend](numFeatures int, backend B) *BatchNorm2D[B] {
	if numFeatures <= 0 {
		panic(fmt.Sprintf("batchnorm2d: invalid feature count %d", numFeatures))
	}
	runningVar := make([]float32, numFeatures)
	for i := range runningVar {
		runningVar[i] = 1
	}
	return &BatchNorm2D[B]{
		numFeatures: numFeatures,
		eps:         1e-3,
		momentum:    0.99,
		training:    true,
		gamma:       NewParameter("batchnorm2d.gamma", Ones(tensor.Shape{numFeatures}, backend)),
		beta:        NewParameter("batchnorm2d.beta", Zeros(tensor.Shape{numFeatures}, backend)),
		runningMean: make([]float32, numFeatures),
		runningVar:  runningVar,
		backend:     backend,
	}
}

// SetTraining switches between batch statistics and running statistics.
func (bn *BatchNorm2D[B]) SetTraining(training bool) {
	bn.training = training
}

// Forward normalizes the input per channel.
func (bn *BatchNorm2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("batchnorm2d: expected NCHW input, got %v", shape))
	}
	if shape[1] != bn.numFeatures {
		panic(fmt.Sprintf("batchnorm2d: input has %d channels, layer expects %d", shape[1], bn.numFeatures))
	}

	if bn.training {
		return bn.forwardTrain(input)
	}
	return bn.forwardEval(input)
}

func (bn *BatchNorm2D[B]) forwardTrain(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend, ok := any(bn.backend).(BatchNormBackend)
	if !ok {
		panic("batchnorm2d: backend does not implement BatchNorm (wrap it with autodiff)")
	}

	raw, mean, variance := backend.BatchNorm(input.Raw(), bn.gamma.Tensor().Raw(), bn.beta.Tensor().Raw(), bn.eps)
	for c := 0; c < bn.numFeatures; c++ {
		m := float32(bn.momentum)
		bn.runningMean[c] = m*bn.runningMean[c] + (1-m)*mean[c]
		bn.runningVar[c] = m*bn.runningVar[c] + (1-m)*variance[c]
	}
	return tensor.New[float32, B](raw, bn.backend)
}

// forwardEval applies the affine normalization with frozen statistics.
// Nothing here needs a gradient, so it works directly on the buffers.
func (bn *BatchNorm2D[B]) forwardEval(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]

	raw, err := tensor.NewRaw(shape, tensor.Float32, bn.backend.Device())
	if err != nil {
		panic(fmt.Sprintf("batchnorm2d: %v", err))
	}
	src := input.Raw().AsFloat32()
	dst := raw.AsFloat32()
	g := bn.gamma.Tensor().Raw().AsFloat32()
	bt := bn.beta.Tensor().Raw().AsFloat32()

	for ci := 0; ci < c; ci++ {
		invStd := float32(1 / math.Sqrt(float64(bn.runningVar[ci])+bn.eps))
		scale := g[ci] * invStd
		shift := bt[ci] - bn.runningMean[ci]*scale
		for b := 0; b < n; b++ {
			base := ((b*c + ci) * h) * w
			for i := 0; i < h*w; i++ {
				dst[base+i] = src[base+i]*scale + shift
			}
		}
	}
	return tensor.New[float32, B](raw, bn.backend)
}

// Parameters returns [gamma, beta]. Running statistics are buffers, not
// parameters, and are never touched by the optimizer.
func (bn *BatchNorm2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{bn.gamma, bn.beta}
}

// RunningStats returns copies of the running mean and variance.
func (bn *BatchNorm2D[B]) RunningStats() (mean, variance []float32) {
	mean = append([]float32(nil), bn.runningMean...)
	variance = append([]float32(nil), bn.runningVar...)
	return mean, variance
}

func (bn *BatchNorm2D[B]) String() string {
	return fmt.Sprintf("BatchNorm2D(features=%d, eps=%g, momentum=%g)", bn.numFeatures, bn.eps, bn.momentum)
}
