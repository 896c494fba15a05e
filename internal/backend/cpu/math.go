package cpu

import (
	"fmt"
	"math"

	"github.com/facevae-ml/facevae/internal/tensor"
)

func (cpu *CPUBackend) Exp(a *tensor.RawTensor) *tensor.RawTensor {
	return unaryOp(a, "exp", math.Exp)
}

func (cpu *CPUBackend) Log(a *tensor.RawTensor) *tensor.RawTensor {
	return unaryOp(a, "log", math.Log)
}

func (cpu *CPUBackend) Sqrt(a *tensor.RawTensor) *tensor.RawTensor {
	return unaryOp(a, "sqrt", math.Sqrt)
}

// MulScalar multiplies every element by s.
func (cpu *CPUBackend) MulScalar(a *tensor.RawTensor, s float64) *tensor.RawTensor {
	return unaryOp(a, "mul_scalar", func(x float64) float64 { return x * s })
}

// AddScalar adds s to every element.
func (cpu *CPUBackend) AddScalar(a *tensor.RawTensor, s float64) *tensor.RawTensor {
	return unaryOp(a, "add_scalar", func(x float64) float64 { return x + s })
}

// unaryOp applies f elementwise, in place when a owns its buffer.
func unaryOp(a *tensor.RawTensor, name string, f func(float64) float64) *tensor.RawTensor {
	out := a
	if !a.IsUnique() {
		out = newRaw(a.Shape(), a.DType())
	}
	switch a.DType() {
	case tensor.Float32:
		src, dst := a.AsFloat32(), out.AsFloat32()
		for i, v := range src {
			dst[i] = float32(f(float64(v)))
		}
	case tensor.Float64:
		src, dst := a.AsFloat64(), out.AsFloat64()
		for i, v := range src {
			dst[i] = f(v)
		}
	default:
		panic(fmt.Sprintf("cpu: %s: unsupported dtype %s", name, a.DType()))
	}
	return out
}
