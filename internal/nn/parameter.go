package nn

import (
	"github.com/hydra-ml/hydra/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network,
// typically a layer's weight or bias tensor.
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
}

// NewParameter creates a new parameter.
//
// The tensor should be initialized before wrapping; initialization
// policies can rewrite it in place afterwards (see init.go).
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{name: name, tensor: t}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}
