package net

import (
	"fmt"
	"sort"

	"github.com/hydra-ml/hydra/internal/nn"
	"github.com/hydra-ml/hydra/internal/tensor"
)

// Joiner merges named feature streams into one tensor.
type Joiner[B tensor.Backend] interface {
	// ForwardStreams consumes a mapping from head name to head output
	// and produces the joined tensor.
	ForwardStreams(streams map[string]*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns the joiner's trainable parameters, if any.
	Parameters() []*nn.Parameter[B]
}

// BuildJoiner compiles a joiner spec against the stamped head output
// shapes, returning the joiner and its output shape. Head names are
// ordered lexicographically wherever an order matters.
func BuildJoiner[B tensor.Backend](spec *JoinerSpec, headShapes map[string]tensor.Shape, backend B) (Joiner[B], tensor.Shape, error) {
	switch spec.Type {
	case "concat":
		return buildConcat[B](spec, headShapes)
	case "film":
		return buildFiLM(spec, headShapes, backend)
	default:
		return nil, nil, &UnsupportedTypeError{Type: spec.Type}
	}
}

// Concat flattens every stream to a vector and concatenates them along
// the feature axis in a fixed key order.
type Concat[B tensor.Backend] struct {
	keys []string
}

// ForwardStreams implements Joiner.
func (c *Concat[B]) ForwardStreams(streams map[string]*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	parts := make([]*tensor.Tensor[float32, B], 0, len(c.keys))
	for _, key := range c.keys {
		stream, ok := streams[key]
		if !ok {
			panic(fmt.Sprintf("concat: missing stream %q", key))
		}
		parts = append(parts, stream.Flatten(1))
	}
	return tensor.Cat(parts, 1)
}

// Parameters implements Joiner; Concat owns none.
func (c *Concat[B]) Parameters() []*nn.Parameter[B] { return nil }

func buildConcat[B tensor.Backend](spec *JoinerSpec, headShapes map[string]tensor.Shape) (Joiner[B], tensor.Shape, error) {
	keys := make([]string, 0, len(headShapes))
	width := 0
	for name, shape := range headShapes {
		keys = append(keys, name)
		width += shape.NumElements()
	}
	sort.Strings(keys)

	outShape := tensor.Shape{width}
	spec.OutShapeInferred = outShape
	return &Concat[B]{keys: keys}, outShape, nil
}

// FiLM modulates a feature stream with an affine transform whose scale
// and shift are computed from a conditioner stream. The scale and
// shift sub-models map the conditioner width to the feature stream's
// channel count; their outputs broadcast over the feature tensor's
// trailing spatial dimensions.
type FiLM[B tensor.Backend] struct {
	feat string
	cond string

	scale nn.Module[B]
	shift nn.Module[B]

	channels int
}

// ForwardStreams implements Joiner. Output shape equals the feature
// stream's shape.
func (f *FiLM[B]) ForwardStreams(streams map[string]*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	feat, ok := streams[f.feat]
	if !ok {
		panic(fmt.Sprintf("film: missing feature stream %q", f.feat))
	}
	cond, ok := streams[f.cond]
	if !ok {
		panic(fmt.Sprintf("film: missing conditioner stream %q", f.cond))
	}

	featShape := feat.Shape()
	if len(featShape) < 2 || featShape[1] != f.channels {
		panic(fmt.Sprintf("film: feature tensor %v does not carry %d channels on axis 1", featShape, f.channels))
	}

	scale := f.scale.Forward(cond)
	shift := f.shift.Forward(cond)

	// Broadcast [batch, channels] over the feature's spatial dims.
	viewDims := make([]int, 0, len(featShape))
	viewDims = append(viewDims, featShape[0], f.channels)
	for range featShape[2:] {
		viewDims = append(viewDims, 1)
	}
	scale = scale.Reshape(viewDims...)
	shift = shift.Reshape(viewDims...)

	return scale.Mul(feat).Add(shift)
}

// Parameters implements Joiner.
func (f *FiLM[B]) Parameters() []*nn.Parameter[B] {
	return append(f.scale.Parameters(), f.shift.Parameters()...)
}

func buildFiLM[B tensor.Backend](spec *JoinerSpec, headShapes map[string]tensor.Shape, backend B) (Joiner[B], tensor.Shape, error) {
	featShape, ok := headShapes[spec.Feat]
	if !ok {
		return nil, nil, &KeyNotFoundError{Key: spec.Feat, Context: "heads"}
	}
	condShape, ok := headShapes[spec.Cond]
	if !ok {
		return nil, nil, &KeyNotFoundError{Key: spec.Cond, Context: "heads"}
	}
	if len(condShape) != 1 {
		return nil, nil, &ShapeMismatchError{Reason: fmt.Sprintf("film conditioner must be flat, got %v", condShape)}
	}
	if spec.Film == nil {
		return nil, nil, &ShapeMismatchError{Reason: "film joiner needs a nested film spec"}
	}

	channels := featShape[0]
	spec.Film.InShape = tensor.Shape{condShape[0]}
	spec.Film.OutShape = tensor.Shape{channels}

	scale, err := BuildMLP(spec.Film, backend)
	if err != nil {
		return nil, nil, err
	}
	shift, err := BuildMLP(spec.Film, backend)
	if err != nil {
		return nil, nil, err
	}

	outShape := tensor.Shape{channels}
	spec.OutShapeInferred = outShape
	film := &FiLM[B]{
		feat:     spec.Feat,
		cond:     spec.Cond,
		scale:    scale.Module,
		shift:    shift.Module,
		channels: channels,
	}
	return film, outShape, nil
}
