package net

import (
	"fmt"

	"github.com/hydra-ml/hydra/internal/nn"
	"github.com/hydra-ml/hydra/internal/tensor"
)

// Recurrent wraps a recurrent stack with an optional linear projection
// head fed from the final hidden state.
//
// Without a projection, Forward returns the full output sequence
// [batch, seq, dirs*hidden]. With one, Forward returns the projection
// of the last layer's final hidden state concatenated across
// directions, shape [batch, out]. ForwardState additionally returns
// the raw final state for stateful rollouts.
type Recurrent[B tensor.Backend] struct {
	rnn  *nn.RNN[B]
	proj *nn.Sequential[B] // nil when the spec has no out_shape
}

// Forward implements nn.Module.
func (r *Recurrent[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out, _ := r.ForwardState(input)
	return out
}

// ForwardState runs the stack and returns both the module output and
// the final hidden/cell state.
func (r *Recurrent[B]) ForwardState(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], *nn.RNNState[B]) {
	seq, state := r.rnn.Forward(input)
	if r.proj == nil {
		return seq, state
	}
	hidden := lastLayerHidden(state.H, r.rnn.NumLayers(), r.rnn.NumDirections())
	return r.proj.Forward(hidden), state
}

// Parameters returns the stack's and projection head's parameters.
func (r *Recurrent[B]) Parameters() []*nn.Parameter[B] {
	params := r.rnn.Parameters()
	if r.proj != nil {
		params = append(params, r.proj.Parameters()...)
	}
	return params
}

// RNN exposes the underlying recurrent stack.
func (r *Recurrent[B]) RNN() *nn.RNN[B] { return r.rnn }

// lastLayerHidden extracts the final layer's hidden state from
// h [layers*dirs, batch, hidden] and concatenates the directions
// per example, direction-major, yielding [batch, dirs*hidden].
func lastLayerHidden[B tensor.Backend](h *tensor.Tensor[float32, B], numLayers, numDirections int) *tensor.Tensor[float32, B] {
	shape := h.Shape()
	batch, hidden := shape[1], shape[2]

	out := tensor.Zeros[float32](tensor.Shape{batch, numDirections * hidden}, h.Backend())
	src := h.Data()
	dst := out.Data()
	for dir := 0; dir < numDirections; dir++ {
		block := ((numLayers-1)*numDirections + dir) * batch * hidden
		for n := 0; n < batch; n++ {
			copy(dst[n*numDirections*hidden+dir*hidden:n*numDirections*hidden+(dir+1)*hidden],
				src[block+n*hidden:block+(n+1)*hidden])
		}
	}
	return out
}

// BuildRecurrent compiles an rnn, gru or lstm spec.
//
// All entries of spec.Layers must be the same hidden width; their
// count is the stack depth. The inferred output shape is
// [dirs*hidden], replaced by spec.OutShape when a projection head is
// requested.
func BuildRecurrent[B tensor.Backend](spec *Spec, backend B) (*RecurrentResult[B], error) {
	var kind nn.CellKind
	switch spec.Type {
	case "rnn":
		kind = nn.CellRNN
	case "gru":
		kind = nn.CellGRU
	case "lstm":
		kind = nn.CellLSTM
	default:
		return nil, &UnsupportedTypeError{Type: spec.Type}
	}

	if len(spec.InShape) != 1 {
		return nil, &ShapeMismatchError{Reason: fmt.Sprintf("%s expects a flat in_shape, got %v", spec.Type, spec.InShape)}
	}
	if len(spec.Layers) == 0 {
		return nil, &ShapeMismatchError{Reason: "recurrent spec needs at least one layer"}
	}
	hidden := spec.Layers[0].Width
	for _, l := range spec.Layers {
		if l.IsConv() || l.Width != hidden {
			return nil, &ShapeMismatchError{Reason: fmt.Sprintf(
				"recurrent layers must share one hidden width, got %v", spec.Layers)}
		}
	}

	rnn := nn.NewRNN(kind, spec.InShape[0], hidden, len(spec.Layers), spec.Bidirectional, backend)
	if spec.InitFn != "" {
		if err := initializeWeights[B](rnn, spec.InitFn, ""); err != nil {
			return nil, err
		}
	}

	outShape := tensor.Shape{rnn.NumDirections() * hidden}
	module := &Recurrent[B]{rnn: rnn}

	if spec.OutShape != nil {
		if len(spec.OutShape) != 1 {
			return nil, &ShapeMismatchError{Reason: fmt.Sprintf("recurrent out_shape must be flat, got %v", spec.OutShape)}
		}
		proj := nn.NewSequential[B](nn.NewLinear(outShape[0], spec.OutShape[0], backend))
		act, err := activationForLayer[B](spec, true)
		if err != nil {
			return nil, err
		}
		if act != nil {
			proj.Add(act)
		}
		if spec.InitFn != "" {
			if err := initializeWeights[B](proj, spec.InitFn, ""); err != nil {
				return nil, err
			}
		}
		module.proj = proj
		outShape = spec.OutShape.Clone()
	}

	spec.OutShapeInferred = outShape
	return &RecurrentResult[B]{Module: module, OutShape: outShape}, nil
}

// RecurrentResult is the recurrent builder's outcome, typed to the
// Recurrent module so callers can reach ForwardState.
type RecurrentResult[B tensor.Backend] struct {
	Module   *Recurrent[B]
	OutShape tensor.Shape
}
