package cpu

import (
	"fmt"
	"math"

	"github.com/hydra-ml/hydra/internal/tensor"
)

// Unary math and activation kernels. The nn package discovers these
// through capability interfaces rather than the core Backend interface,
// so accelerator backends can implement them incrementally.

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("relu", x, func(v float64) float64 {
		if v > 0 {
			return v
		}
		return 0
	})
}

// LeakyReLU computes x for x >= 0 and negSlope*x otherwise.
func (cpu *CPUBackend) LeakyReLU(x *tensor.RawTensor, negSlope float64) *tensor.RawTensor {
	return cpu.unary("leaky_relu", x, func(v float64) float64 {
		if v >= 0 {
			return v
		}
		return negSlope * v
	})
}

// Sigmoid computes 1 / (1 + exp(-x)) element-wise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("sigmoid", x, func(v float64) float64 {
		return 1.0 / (1.0 + math.Exp(-v))
	})
}

// Tanh computes the hyperbolic tangent element-wise.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("tanh", x, math.Tanh)
}

// Softplus computes log(1 + exp(x)) element-wise.
func (cpu *CPUBackend) Softplus(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("softplus", x, func(v float64) float64 {
		// Large inputs saturate to identity to avoid overflow.
		if v > 20 {
			return v
		}
		return math.Log1p(math.Exp(v))
	})
}

// ELU computes x for x > 0 and alpha*(exp(x)-1) otherwise.
func (cpu *CPUBackend) ELU(x *tensor.RawTensor, alpha float64) *tensor.RawTensor {
	return cpu.unary("elu", x, func(v float64) float64 {
		if v > 0 {
			return v
		}
		return alpha * (math.Exp(v) - 1)
	})
}

// SELU computes scale*x for x > 0 and scale*alpha*(exp(x)-1) otherwise,
// with the fixed self-normalizing constants.
func (cpu *CPUBackend) SELU(x *tensor.RawTensor) *tensor.RawTensor {
	const (
		alpha = 1.6732632423543772
		scale = 1.0507009873554805
	)
	return cpu.unary("selu", x, func(v float64) float64 {
		if v > 0 {
			return scale * v
		}
		return scale * alpha * (math.Exp(v) - 1)
	})
}

// GELU computes the Gaussian error linear unit, tanh approximation.
func (cpu *CPUBackend) GELU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("gelu", x, func(v float64) float64 {
		return 0.5 * v * (1.0 + math.Tanh(math.Sqrt(2.0/math.Pi)*(v+0.044715*v*v*v)))
	})
}

func (cpu *CPUBackend) unary(name string, x *tensor.RawTensor, f func(float64) float64) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), result.AsFloat32()
		for i := range src {
			dst[i] = float32(f(float64(src[i])))
		}
	case tensor.Float64:
		src, dst := x.AsFloat64(), result.AsFloat64()
		for i := range src {
			dst[i] = f(src[i])
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}

	return result
}
