// Package nn implements the neural network layer primitives the Hydra
// builder assembles: Linear, ConvND, BatchNorm, recurrent stacks,
// activations and containers, plus the weight initialization catalog.
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/hydra-ml/hydra/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Modules compose to build architectures:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU[B](),
//	    nn.NewLinear(128, 10, backend),
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	// Layers expect a leading batch dimension, e.g. Linear takes
	// [batch, in_features].
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module,
	// including nested module parameters. Modules without parameters
	// (activations, Flatten) return nil.
	Parameters() []*Parameter[B]
}
