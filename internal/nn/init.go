package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/hydra-ml/hydra/internal/tensor"
)

// Weight initialization primitives. Each rewrites an existing parameter
// tensor in place, so layers can be constructed with defaults and
// re-initialized by policy afterwards.
//
// Fan-in/fan-out follow the usual convention: for a [out, in] weight
// fanIn = in, fanOut = out; convolution kernels multiply in the
// receptive field size.

// CalculateGain returns the recommended scaling gain for the given
// nonlinearity, matching the customary values: 1 for linear, conv and
// sigmoid, 5/3 for tanh, sqrt(2) for relu, and the leaky-relu formula
// with the default 0.01 negative slope.
func CalculateGain(nonlinearity string) (float64, error) {
	switch nonlinearity {
	case "linear", "conv1d", "conv2d", "conv3d", "conv_transpose1d", "conv_transpose2d", "conv_transpose3d", "sigmoid":
		return 1.0, nil
	case "tanh":
		return 5.0 / 3.0, nil
	case "relu":
		return math.Sqrt2, nil
	case "leaky_relu":
		negSlope := 0.01
		return math.Sqrt(2.0 / (1.0 + negSlope*negSlope)), nil
	default:
		return 0, fmt.Errorf("no gain defined for nonlinearity %q", nonlinearity)
	}
}

// XavierUniform fills w from U(-a, a) with a = gain * sqrt(6/(fanIn+fanOut)).
func XavierUniform(w *tensor.RawTensor, gain float64) {
	fanIn, fanOut := fanInOut(w.Shape())
	bound := gain * math.Sqrt(6.0/float64(fanIn+fanOut))
	fill(w, func() float64 { return uniform(-bound, bound) })
}

// XavierNormal fills w from N(0, std²) with std = gain * sqrt(2/(fanIn+fanOut)).
func XavierNormal(w *tensor.RawTensor, gain float64) {
	fanIn, fanOut := fanInOut(w.Shape())
	std := gain * math.Sqrt(2.0/float64(fanIn+fanOut))
	fill(w, func() float64 { return rand.NormFloat64() * std })
}

// KaimingUniform fills w from U(-a, a) with a = gain * sqrt(3/fanIn),
// using the gain of the given nonlinearity (relu when unknown).
func KaimingUniform(w *tensor.RawTensor, nonlinearity string) {
	gain, err := CalculateGain(nonlinearity)
	if err != nil {
		gain = math.Sqrt2
	}
	fanIn, _ := fanInOut(w.Shape())
	bound := gain * math.Sqrt(3.0/float64(fanIn))
	fill(w, func() float64 { return uniform(-bound, bound) })
}

// KaimingNormal fills w from N(0, std²) with std = gain / sqrt(fanIn).
func KaimingNormal(w *tensor.RawTensor, nonlinearity string) {
	gain, err := CalculateGain(nonlinearity)
	if err != nil {
		gain = math.Sqrt2
	}
	fanIn, _ := fanInOut(w.Shape())
	std := gain / math.Sqrt(float64(fanIn))
	fill(w, func() float64 { return rand.NormFloat64() * std })
}

// Normal fills w from N(mean, std²).
func Normal(w *tensor.RawTensor, mean, std float64) {
	fill(w, func() float64 { return rand.NormFloat64()*std + mean })
}

// Uniform fills w from U(low, high).
func Uniform(w *tensor.RawTensor, low, high float64) {
	fill(w, func() float64 { return uniform(low, high) })
}

// Constant fills w with a single value.
func Constant(w *tensor.RawTensor, value float64) {
	fill(w, func() float64 { return value })
}

// Orthogonal fills w with a (semi-)orthogonal matrix scaled by gain,
// computed by Gram-Schmidt orthonormalization of a random normal
// matrix. Tensors with more than two dimensions are treated as
// [shape[0], numel/shape[0]].
func Orthogonal(w *tensor.RawTensor, gain float64) {
	shape := w.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("orthogonal: tensor must have at least 2 dimensions, got shape %v", shape))
	}

	rows := shape[0]
	cols := w.NumElements() / rows

	// Orthonormalize the smaller side so the rows (or columns) can
	// actually be mutually orthogonal.
	transposed := rows > cols
	m, n := rows, cols
	if transposed {
		m, n = cols, rows
	}

	// Random normal m x n matrix, m <= n.
	a := make([]float64, m*n)
	for i := range a {
		a[i] = rand.NormFloat64()
	}

	// Modified Gram-Schmidt over the m rows. A draw that lands in the
	// span of the earlier rows is re-randomized and re-projected.
	for i := 0; i < m; i++ {
		row := a[i*n : (i+1)*n]
		var norm float64
		for {
			for j := 0; j < i; j++ {
				prev := a[j*n : (j+1)*n]
				var dot float64
				for k := range row {
					dot += row[k] * prev[k]
				}
				for k := range row {
					row[k] -= dot * prev[k]
				}
			}
			norm = 0
			for k := range row {
				norm += row[k] * row[k]
			}
			norm = math.Sqrt(norm)
			if norm >= 1e-12 {
				break
			}
			for k := range row {
				row[k] = rand.NormFloat64()
			}
		}
		for k := range row {
			row[k] /= norm
		}
	}

	idx := 0
	fill(w, func() float64 {
		r := idx / cols
		c := idx % cols
		idx++
		if transposed {
			return gain * a[c*rows+r]
		}
		return gain * a[r*cols+c]
	})
}

func fanInOut(shape tensor.Shape) (fanIn, fanOut int) {
	if len(shape) < 2 {
		n := shape.NumElements()
		return n, n
	}
	receptive := 1
	for _, dim := range shape[2:] {
		receptive *= dim
	}
	fanIn = shape[1] * receptive
	fanOut = shape[0] * receptive
	return fanIn, fanOut
}

func uniform(low, high float64) float64 {
	return low + rand.Float64()*(high-low) //nolint:gosec // statistical use
}

func fill(w *tensor.RawTensor, next func() float64) {
	switch w.DType() {
	case tensor.Float32:
		data := w.AsFloat32()
		for i := range data {
			data[i] = float32(next())
		}
	case tensor.Float64:
		data := w.AsFloat64()
		for i := range data {
			data[i] = next()
		}
	default:
		panic(fmt.Sprintf("init: unsupported dtype %s", w.DType()))
	}
}
