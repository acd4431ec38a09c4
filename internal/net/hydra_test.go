package net

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydra-ml/hydra/internal/backend/cpu"
	"github.com/hydra-ml/hydra/internal/tensor"
)

func hydraSpec() *Spec {
	return &Spec{
		Type: "hydra",
		Heads: map[string]*Spec{
			"image": {
				Type: "conv2d",
				Layers: []LayerDef{
					C(16, 4, 2, 0, 1),
					C(16, 4, 1, 0, 1),
				},
				FlattenOut: true,
				Activation: "relu",
				InitFn:     "orthogonal_",
			},
			"gyro": {Type: "mlp"},
		},
		Body: &BodySpec{
			Spec: Spec{
				Type:       "mlp",
				Layers:     []LayerDef{W(256), W(256)},
				Activation: "relu",
				InitFn:     "orthogonal_",
			},
			Joiner: &JoinerSpec{Type: "concat"},
		},
		Tails: map[string]*Spec{
			"v": {
				Type:          "mlp",
				OutShape:      tensor.Shape{1},
				Activation:    "relu",
				OutActivation: Null(),
			},
			"pi": {
				Type:          "mlp",
				OutShape:      tensor.Shape{4},
				Activation:    "relu",
				OutActivation: Null(),
			},
		},
	}
}

// TestBuildHydra_EndToEnd tests the two-head, concat, two-tail
// scenario at batch size 8.
func TestBuildHydra_EndToEnd(t *testing.T) {
	backend := cpu.New()
	spec := hydraSpec()
	inShapes := map[string]tensor.Shape{
		"image": {3, 20, 20},
		"gyro":  {4},
	}

	res, err := BuildHydra(spec, inShapes, backend)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{1}, res.OutShapes["v"])
	assert.Equal(t, tensor.Shape{4}, res.OutShapes["pi"])

	inputs := map[string]*tensor.Tensor[float32, *cpu.CPUBackend]{
		"image": tensor.Rand[float32](tensor.Shape{8, 3, 20, 20}, backend),
		"gyro":  tensor.Rand[float32](tensor.Shape{8, 4}, backend),
	}
	outputs := res.Module.Forward(inputs)

	require.Len(t, outputs, 2)
	assert.Equal(t, tensor.Shape{8, 1}, outputs["v"].Shape())
	assert.Equal(t, tensor.Shape{8, 4}, outputs["pi"].Shape())
}

// TestBuildHydra_ShapePropagation tests the head, joiner, body, tail
// stamping chain.
func TestBuildHydra_ShapePropagation(t *testing.T) {
	backend := cpu.New()
	spec := hydraSpec()
	inShapes := map[string]tensor.Shape{
		"image": {3, 20, 20},
		"gyro":  {4},
	}

	_, err := BuildHydra(spec, inShapes, backend)
	require.NoError(t, err)

	// image: 20 -> 9 -> 6, flattened 16*6*6 = 576; gyro identity 4.
	assert.Equal(t, tensor.Shape{576}, spec.Heads["image"].OutShapeInferred)
	assert.Equal(t, tensor.Shape{4}, spec.Heads["gyro"].OutShapeInferred)
	assert.Equal(t, tensor.Shape{580}, spec.Body.Joiner.OutShapeInferred)

	// The orchestrator writes downstream in_shapes before delegating.
	assert.Equal(t, tensor.Shape{580}, spec.Body.InShape)
	assert.Equal(t, tensor.Shape{256}, spec.Body.OutShapeInferred)
	assert.Equal(t, tensor.Shape{256}, spec.Tails["v"].InShape)
	assert.Equal(t, tensor.Shape{1}, spec.Tails["v"].OutShapeInferred)
	assert.Equal(t, tensor.Shape{4}, spec.Tails["pi"].OutShapeInferred)
}

// TestBuildHydra_MissingInputShape tests the dangling head input
// error.
func TestBuildHydra_MissingInputShape(t *testing.T) {
	backend := cpu.New()
	spec := hydraSpec()

	_, err := BuildHydra(spec, map[string]tensor.Shape{"image": {3, 20, 20}}, backend)
	var keyErr *KeyNotFoundError
	require.ErrorAs(t, err, &keyErr)
	assert.Equal(t, "gyro", keyErr.Key)
}

// TestBuildHydra_UnsupportedHeadType tests failure on an unknown head
// discriminator.
func TestBuildHydra_UnsupportedHeadType(t *testing.T) {
	backend := cpu.New()
	spec := hydraSpec()
	spec.Heads["gyro"].Type = "capsule"

	_, err := BuildHydra(spec, map[string]tensor.Shape{
		"image": {3, 20, 20},
		"gyro":  {4},
	}, backend)
	var typeErr *UnsupportedTypeError
	require.ErrorAs(t, err, &typeErr)
}

// TestBuildHydra_FromYAML tests the parsed-spec path end to end.
func TestBuildHydra_FromYAML(t *testing.T) {
	backend := cpu.New()
	spec, err := ParseSpec([]byte(`
type: hydra
heads:
  image:
    type: conv2d
    layers:
      - [16, 4, 2]
      - [16, 4, 1]
    flatten_out: true
    activation: relu
  gyro:
    type: mlp
    layers: []
body:
  joiner:
    type: concat
  type: mlp
  layers: [256, 256]
  activation: relu
tails:
  v:
    type: mlp
    out_shape: [1]
    activation: relu
    out_activation: null
  pi:
    type: mlp
    out_shape: [4]
    activation: relu
    out_activation: null
`))
	require.NoError(t, err)

	res, err := BuildHydra(spec, map[string]tensor.Shape{
		"image": {3, 20, 20},
		"gyro":  {4},
	}, backend)
	require.NoError(t, err)

	outputs := res.Module.Forward(map[string]*tensor.Tensor[float32, *cpu.CPUBackend]{
		"image": tensor.Rand[float32](tensor.Shape{8, 3, 20, 20}, backend),
		"gyro":  tensor.Rand[float32](tensor.Shape{8, 4}, backend),
	})
	assert.Equal(t, tensor.Shape{8, 1}, outputs["v"].Shape())
	assert.Equal(t, tensor.Shape{8, 4}, outputs["pi"].Shape())
}
