package nn

import (
	"fmt"
	"math"

	"github.com/hydra-ml/hydra/internal/tensor"
)

// BatchNorm normalizes activations per channel over the batch and any
// spatial dimensions: y = gamma * (x - mean) / sqrt(var + eps) + beta.
//
// It accepts [batch, features] input (dense stacks) as well as
// [batch, channels, spatial...] input (conv stacks); the channel axis is
// always dimension 1. Statistics are computed from the current batch.
type BatchNorm[B tensor.Backend] struct {
	numFeatures int
	epsilon     float64

	gamma *Parameter[B]
	beta  *Parameter[B]
}

// NewBatchNorm creates a BatchNorm layer over numFeatures channels.
// Gamma is initialized to ones, beta to zeros.
func NewBatchNorm[B tensor.Backend](numFeatures int, backend B) *BatchNorm[B] {
	if numFeatures <= 0 {
		panic(fmt.Sprintf("batchnorm: invalid feature count %d", numFeatures))
	}

	gamma := tensor.Ones[float32](tensor.Shape{numFeatures}, backend)
	beta := tensor.Zeros[float32](tensor.Shape{numFeatures}, backend)

	return &BatchNorm[B]{
		numFeatures: numFeatures,
		epsilon:     1e-5,
		gamma:       NewParameter("gamma", gamma),
		beta:        NewParameter("beta", beta),
	}
}

// Forward normalizes the input with batch statistics.
func (bn *BatchNorm[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("BatchNorm.Forward: expected at least 2D input, got shape %v", shape))
	}
	if shape[1] != bn.numFeatures {
		panic(fmt.Sprintf("BatchNorm.Forward: input channels %d != expected %d", shape[1], bn.numFeatures))
	}

	batch := shape[0]
	channels := shape[1]
	inner := 1
	for _, dim := range shape[2:] {
		inner *= dim
	}

	src := input.Data()
	out := tensor.Zeros[float32](shape, input.Backend())
	dst := out.Data()
	gamma := bn.gamma.Tensor().Data()
	beta := bn.beta.Tensor().Data()

	count := float64(batch * inner)
	for c := 0; c < channels; c++ {
		var sum, sqSum float64
		for n := 0; n < batch; n++ {
			base := n*channels*inner + c*inner
			for i := 0; i < inner; i++ {
				v := float64(src[base+i])
				sum += v
				sqSum += v * v
			}
		}
		mean := sum / count
		variance := sqSum/count - mean*mean
		invStd := 1.0 / math.Sqrt(variance+bn.epsilon)

		g, b := float64(gamma[c]), float64(beta[c])
		for n := 0; n < batch; n++ {
			base := n*channels*inner + c*inner
			for i := 0; i < inner; i++ {
				dst[base+i] = float32(g*(float64(src[base+i])-mean)*invStd + b)
			}
		}
	}

	return out
}

// Parameters returns the learnable scale and shift.
func (bn *BatchNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{bn.gamma, bn.beta}
}

// NumFeatures returns the normalized channel count.
func (bn *BatchNorm[B]) NumFeatures() int {
	return bn.numFeatures
}

// normalization marks this module so weight-initialization passes skip
// its parameters.
func (bn *BatchNorm[B]) normalization() {}

// NormalizationModule identifies normalization layers whose parameters
// must not be touched by weight initialization policies.
type NormalizationModule interface {
	normalization()
}

// String returns a string representation of the layer.
func (bn *BatchNorm[B]) String() string {
	return fmt.Sprintf("BatchNorm(num_features=%d)", bn.numFeatures)
}
