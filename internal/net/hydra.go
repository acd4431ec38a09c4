package net

import (
	"fmt"
	"sort"

	"github.com/hydra-ml/hydra/internal/nn"
	"github.com/hydra-ml/hydra/internal/tensor"
)

// Hydra composes named heads, a joiner, a shared body and named tails
// into one module mapping named inputs to named outputs.
type Hydra[B tensor.Backend] struct {
	headKeys []string
	tailKeys []string

	heads  map[string]nn.Module[B]
	joiner Joiner[B]
	body   nn.Module[B]
	tails  map[string]nn.Module[B]
}

// Forward runs every head on its named input, joins the head outputs,
// runs the body once and fans its output into every tail, returning a
// mapping from tail name to tail output. Heads and tails are
// independent of each other; the joiner and body are strict sequence
// points.
func (h *Hydra[B]) Forward(inputs map[string]*tensor.Tensor[float32, B]) map[string]*tensor.Tensor[float32, B] {
	headOut := make(map[string]*tensor.Tensor[float32, B], len(h.headKeys))
	for _, name := range h.headKeys {
		in, ok := inputs[name]
		if !ok {
			panic(fmt.Sprintf("hydra: missing input for head %q", name))
		}
		headOut[name] = h.heads[name].Forward(in)
	}

	joined := h.joiner.ForwardStreams(headOut)
	bodyOut := h.body.Forward(joined)

	out := make(map[string]*tensor.Tensor[float32, B], len(h.tailKeys))
	for _, name := range h.tailKeys {
		out[name] = h.tails[name].Forward(bodyOut)
	}
	return out
}

// Parameters returns the parameters of every head, the joiner, the
// body and every tail.
func (h *Hydra[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, name := range h.headKeys {
		params = append(params, h.heads[name].Parameters()...)
	}
	params = append(params, h.joiner.Parameters()...)
	params = append(params, h.body.Parameters()...)
	for _, name := range h.tailKeys {
		params = append(params, h.tails[name].Parameters()...)
	}
	return params
}

// Head returns the built module of the named head.
func (h *Hydra[B]) Head(name string) nn.Module[B] { return h.heads[name] }

// Tail returns the built module of the named tail.
func (h *Hydra[B]) Tail(name string) nn.Module[B] { return h.tails[name] }

// Joiner returns the built joiner.
func (h *Hydra[B]) Joiner() Joiner[B] { return h.joiner }

// Body returns the built body module.
func (h *Hydra[B]) Body() nn.Module[B] { return h.body }

// HydraResult is the composite builder's outcome: the module plus the
// output shape of every tail.
type HydraResult[B tensor.Backend] struct {
	Module    *Hydra[B]
	OutShapes map[string]tensor.Shape
}

// BuildHydra compiles a composite spec against the per-head input
// shapes, batch dimension excluded.
//
// Shape propagation follows a strict topological order: every head is
// built from its supplied input shape, the joiner is built from the
// head output shapes, the body's input shape is the joiner's output
// shape, and every tail's input shape is the body's output shape.
func BuildHydra[B tensor.Backend](spec *Spec, inShapes map[string]tensor.Shape, backend B) (*HydraResult[B], error) {
	if spec.Body == nil || spec.Body.Joiner == nil {
		return nil, &ShapeMismatchError{Reason: "hydra spec needs a body with a joiner"}
	}
	if len(spec.Heads) == 0 || len(spec.Tails) == 0 {
		return nil, &ShapeMismatchError{Reason: "hydra spec needs at least one head and one tail"}
	}

	heads := make(map[string]nn.Module[B], len(spec.Heads))
	headShapes := make(map[string]tensor.Shape, len(spec.Heads))
	headKeys := sortedKeys(spec.Heads)
	for _, name := range headKeys {
		inShape, ok := inShapes[name]
		if !ok {
			return nil, &KeyNotFoundError{Key: name, Context: "input shapes"}
		}
		headSpec := spec.Heads[name]
		headSpec.InShape = inShape.Clone()
		res, err := Build(headSpec, backend)
		if err != nil {
			return nil, fmt.Errorf("building head %q: %w", name, err)
		}
		heads[name] = res.Module
		headShapes[name] = res.OutShape
	}

	joiner, joinedShape, err := BuildJoiner(spec.Body.Joiner, headShapes, backend)
	if err != nil {
		return nil, fmt.Errorf("building joiner: %w", err)
	}

	spec.Body.InShape = joinedShape.Clone()
	bodyRes, err := Build(&spec.Body.Spec, backend)
	if err != nil {
		return nil, fmt.Errorf("building body: %w", err)
	}

	tails := make(map[string]nn.Module[B], len(spec.Tails))
	outShapes := make(map[string]tensor.Shape, len(spec.Tails))
	tailKeys := sortedKeys(spec.Tails)
	for _, name := range tailKeys {
		tailSpec := spec.Tails[name]
		tailSpec.InShape = bodyRes.OutShape.Clone()
		res, err := Build(tailSpec, backend)
		if err != nil {
			return nil, fmt.Errorf("building tail %q: %w", name, err)
		}
		tails[name] = res.Module
		outShapes[name] = res.OutShape
	}

	module := &Hydra[B]{
		headKeys: headKeys,
		tailKeys: tailKeys,
		heads:    heads,
		joiner:   joiner,
		body:     bodyRes.Module,
		tails:    tails,
	}
	return &HydraResult[B]{Module: module, OutShapes: outShapes}, nil
}

func sortedKeys(m map[string]*Spec) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
