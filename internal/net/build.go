package net

import (
	"github.com/hydra-ml/hydra/internal/nn"
	"github.com/hydra-ml/hydra/internal/tensor"
)

// Result is the outcome of building one spec node: the executable
// module and its output shape, batch dimension excluded. The same
// shape is stamped onto the spec node as OutShapeInferred.
type Result[B tensor.Backend] struct {
	Module   nn.Module[B]
	OutShape tensor.Shape
}

// Build compiles a non-composite spec into a module, dispatching on
// the type discriminator. Composite specs go through BuildHydra.
func Build[B tensor.Backend](spec *Spec, backend B) (*Result[B], error) {
	switch spec.Type {
	case "mlp":
		return BuildMLP(spec, backend)
	case "conv1d", "conv2d", "conv3d":
		return BuildConv(spec, backend)
	case "rnn", "gru", "lstm":
		res, err := BuildRecurrent(spec, backend)
		if err != nil {
			return nil, err
		}
		return &Result[B]{Module: res.Module, OutShape: res.OutShape}, nil
	default:
		return nil, &UnsupportedTypeError{Type: spec.Type}
	}
}
