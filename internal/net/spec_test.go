package net

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hydra-ml/hydra/internal/tensor"
)

// TestParseSpec_MLP tests decoding a plain feed-forward spec.
func TestParseSpec_MLP(t *testing.T) {
	spec, err := ParseSpec([]byte(`
type: mlp
in_shape: [10]
layers: [64, 32]
activation: relu
init_fn: orthogonal_
batch_norm: true
`))
	require.NoError(t, err)

	assert.Equal(t, "mlp", spec.Type)
	assert.Equal(t, tensor.Shape{10}, spec.InShape)
	require.Len(t, spec.Layers, 2)
	assert.Equal(t, 64, spec.Layers[0].Width)
	assert.False(t, spec.Layers[0].IsConv())
	assert.Equal(t, "relu", spec.Activation)
	assert.Equal(t, "orthogonal_", spec.InitFn)
	assert.True(t, spec.BatchNorm)
	assert.False(t, spec.OutActivation.Present())
}

// TestParseSpec_ConvLayers tests decoding hyperparameter tuples.
func TestParseSpec_ConvLayers(t *testing.T) {
	spec, err := ParseSpec([]byte(`
type: conv2d
in_shape: [3, 20, 20]
layers:
  - [16, 4, 2]
  - [16, 4, 1, 0, 1]
flatten_out: true
`))
	require.NoError(t, err)

	require.Len(t, spec.Layers, 2)
	assert.True(t, spec.Layers[0].IsConv())
	assert.Equal(t, []int{16, 4, 2}, spec.Layers[0].Conv)
	assert.True(t, spec.FlattenOut)

	outC, kernel, stride, padding, dilation, err := spec.Layers[0].convParams()
	require.NoError(t, err)
	assert.Equal(t, []int{16, 4, 2, 0, 1}, []int{outC, kernel, stride, padding, dilation})
}

// TestParseSpec_OutActivationThreeWay tests the absent, explicit-null
// and named states of out_activation.
func TestParseSpec_OutActivationThreeWay(t *testing.T) {
	absent, err := ParseSpec([]byte("type: mlp\nactivation: relu\n"))
	require.NoError(t, err)
	assert.False(t, absent.OutActivation.Present())

	null, err := ParseSpec([]byte("type: mlp\nactivation: relu\nout_activation: null\n"))
	require.NoError(t, err)
	assert.True(t, null.OutActivation.Present())
	assert.Equal(t, "", null.OutActivation.Value())

	named, err := ParseSpec([]byte("type: mlp\nactivation: relu\nout_activation: tanh\n"))
	require.NoError(t, err)
	assert.True(t, named.OutActivation.Present())
	assert.Equal(t, "tanh", named.OutActivation.Value())
}

// TestParseSpec_Hydra tests decoding the composite layout, joiner
// included.
func TestParseSpec_Hydra(t *testing.T) {
	spec, err := ParseSpec([]byte(`
type: hydra
heads:
  image:
    type: conv2d
    layers:
      - [16, 4, 2]
    flatten_out: true
  gyro:
    type: mlp
    layers: []
body:
  joiner:
    type: concat
  type: mlp
  layers: [256, 256]
tails:
  v:
    type: mlp
    out_shape: [1]
    out_activation: null
`))
	require.NoError(t, err)

	assert.Len(t, spec.Heads, 2)
	require.NotNil(t, spec.Body)
	require.NotNil(t, spec.Body.Joiner)
	assert.Equal(t, "concat", spec.Body.Joiner.Type)
	assert.Equal(t, "mlp", spec.Body.Type)
	assert.Len(t, spec.Body.Layers, 2)

	tail := spec.Tails["v"]
	require.NotNil(t, tail)
	assert.Equal(t, tensor.Shape{1}, tail.OutShape)
	assert.True(t, tail.OutActivation.Present())
	assert.Equal(t, "", tail.OutActivation.Value())
}

// TestSpec_MarshalRoundTrip tests that stamped shapes and the
// out_activation states survive re-encoding.
func TestSpec_MarshalRoundTrip(t *testing.T) {
	spec := &Spec{
		Type:             "mlp",
		InShape:          tensor.Shape{4},
		Layers:           []LayerDef{W(8)},
		Activation:       "relu",
		OutActivation:    Null(),
		OutShapeInferred: tensor.Shape{8},
	}

	encoded, err := yaml.Marshal(spec)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), "out_activation:")
	assert.Contains(t, string(encoded), "_out_shape:")

	decoded, err := ParseSpec(encoded)
	require.NoError(t, err)
	assert.True(t, decoded.OutActivation.Present())
	assert.Equal(t, "", decoded.OutActivation.Value())
	assert.Equal(t, tensor.Shape{8}, decoded.OutShapeInferred)
}
