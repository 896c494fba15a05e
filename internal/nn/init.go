package nn

import (
	"math"
	"math/rand"

	"github.com/facevae-ml/facevae/internal/tensor"
)

// Xavier initializes a weight tensor with Glorot uniform values,
// U(-√(6/(fanIn+fanOut)), +√(6/(fanIn+fanOut))), which keeps activation
// variance roughly constant across layers. Drawing from rng keeps
// identically seeded models identical.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	raw, err := tensor.NewRaw(shape, tensor.Float32, backend.Device())
	if err != nil {
		panic(err)
	}
	data := raw.AsFloat32()
	for i := range data {
		data[i] = float32((rng.Float64()*2 - 1) * bound)
	}
	return tensor.New[float32, B](raw, backend)
}

// Zeros creates a zero-filled tensor, the usual bias initialization.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}

// Ones creates a one-filled tensor.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Ones[float32](shape, backend)
}

// Randn creates a tensor of standard normal samples drawn from rng.
func Randn[B tensor.Backend](shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	return tensor.Randn[float32](shape, rng, backend)
}
