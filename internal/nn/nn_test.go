package nn

import (
	"math"
	"testing"

	"github.com/hydra-ml/hydra/internal/backend/cpu"
	"github.com/hydra-ml/hydra/internal/tensor"
)

// TestLinear_ForwardShape tests the linear layer output shape.
func TestLinear_ForwardShape(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear(4, 8, backend)

	input := tensor.Rand[float32](tensor.Shape{2, 4}, backend)
	output := layer.Forward(input)

	if !output.Shape().Equal(tensor.Shape{2, 8}) {
		t.Errorf("Expected shape {2,8}, got %v", output.Shape())
	}
	if len(layer.Parameters()) != 2 {
		t.Errorf("Expected 2 parameters, got %d", len(layer.Parameters()))
	}
}

// TestLinear_ForwardValues tests y = xW^T + b with known weights.
func TestLinear_ForwardValues(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear(2, 2, backend)

	// W = [1 2; 3 4], b = [10, 20]
	copy(layer.Weight().Tensor().Raw().AsFloat32(), []float32{1, 2, 3, 4})
	copy(layer.Bias().Tensor().Raw().AsFloat32(), []float32{10, 20})

	input, err := tensor.FromSlice([]float32{1, 1}, tensor.Shape{1, 2}, backend)
	if err != nil {
		t.Fatal(err)
	}
	out := layer.Forward(input).Data()
	want := []float32{13, 27}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("Forward[%d] = %f, want %f", i, out[i], want[i])
		}
	}
}

// TestConvND_ForwardShape tests conv layers across ranks.
func TestConvND_ForwardShape(t *testing.T) {
	backend := cpu.New()

	conv2d := NewConvND(2, 3, 16, 4, 2, 0, 1, backend)
	out := conv2d.Forward(tensor.Rand[float32](tensor.Shape{2, 3, 20, 20}, backend))
	if !out.Shape().Equal(tensor.Shape{2, 16, 9, 9}) {
		t.Errorf("conv2d: expected {2,16,9,9}, got %v", out.Shape())
	}

	conv1d := NewConvND(1, 2, 4, 3, 1, 0, 1, backend)
	out = conv1d.Forward(tensor.Rand[float32](tensor.Shape{1, 2, 10}, backend))
	if !out.Shape().Equal(tensor.Shape{1, 4, 8}) {
		t.Errorf("conv1d: expected {1,4,8}, got %v", out.Shape())
	}
}

// TestBatchNorm_Normalizes tests that output features have near-zero
// mean and near-unit variance.
func TestBatchNorm_Normalizes(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm(3, backend)

	input, err := tensor.FromSlice([]float32{
		1, 10, 100,
		2, 20, 200,
		3, 30, 300,
		4, 40, 400,
	}, tensor.Shape{4, 3}, backend)
	if err != nil {
		t.Fatal(err)
	}

	out := bn.Forward(input)
	if !out.Shape().Equal(tensor.Shape{4, 3}) {
		t.Fatalf("Expected shape {4,3}, got %v", out.Shape())
	}

	data := out.Data()
	for c := 0; c < 3; c++ {
		var mean, sq float64
		for n := 0; n < 4; n++ {
			v := float64(data[n*3+c])
			mean += v
			sq += v * v
		}
		mean /= 4
		variance := sq/4 - mean*mean
		if math.Abs(mean) > 1e-5 {
			t.Errorf("Channel %d mean = %f, want ~0", c, mean)
		}
		if math.Abs(variance-1) > 1e-3 {
			t.Errorf("Channel %d variance = %f, want ~1", c, variance)
		}
	}
}

// TestBatchNorm_IsNormalization tests the marker interface used to
// skip normalization layers during weight initialization.
func TestBatchNorm_IsNormalization(t *testing.T) {
	backend := cpu.New()
	var m Module[*cpu.CPUBackend] = NewBatchNorm(4, backend)
	if _, ok := m.(NormalizationModule); !ok {
		t.Error("BatchNorm should be a NormalizationModule")
	}

	var lin Module[*cpu.CPUBackend] = NewLinear(2, 2, backend)
	if _, ok := lin.(NormalizationModule); ok {
		t.Error("Linear should not be a NormalizationModule")
	}
}

// TestSequential_Chains tests module chaining and parameter collection.
func TestSequential_Chains(t *testing.T) {
	backend := cpu.New()
	model := NewSequential[*cpu.CPUBackend](
		NewLinear(4, 8, backend),
		NewReLU[*cpu.CPUBackend](),
		NewLinear(8, 2, backend),
	)

	out := model.Forward(tensor.Rand[float32](tensor.Shape{3, 4}, backend))
	if !out.Shape().Equal(tensor.Shape{3, 2}) {
		t.Errorf("Expected shape {3,2}, got %v", out.Shape())
	}
	if len(model.Parameters()) != 4 {
		t.Errorf("Expected 4 parameters, got %d", len(model.Parameters()))
	}
	if model.Len() != 3 {
		t.Errorf("Expected 3 modules, got %d", model.Len())
	}
}

// TestIdentity_PassThrough tests the identity module.
func TestIdentity_PassThrough(t *testing.T) {
	backend := cpu.New()
	id := NewIdentity[*cpu.CPUBackend]()

	input, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{1, 3}, backend)
	if err != nil {
		t.Fatal(err)
	}
	out := id.Forward(input)
	for i, v := range out.Data() {
		if v != input.Data()[i] {
			t.Errorf("Identity changed value at %d: %f", i, v)
		}
	}
}

// TestFlatten_CollapsesSpatialDims tests flattening after the batch
// dimension.
func TestFlatten_CollapsesSpatialDims(t *testing.T) {
	backend := cpu.New()
	f := NewFlatten[*cpu.CPUBackend]()

	out := f.Forward(tensor.Rand[float32](tensor.Shape{2, 16, 5, 5}, backend))
	if !out.Shape().Equal(tensor.Shape{2, 400}) {
		t.Errorf("Expected shape {2,400}, got %v", out.Shape())
	}
}

// TestReLU_Forward tests activation clipping.
func TestReLU_Forward(t *testing.T) {
	backend := cpu.New()
	relu := NewReLU[*cpu.CPUBackend]()

	input, err := tensor.FromSlice([]float32{-1, 0, 2}, tensor.Shape{1, 3}, backend)
	if err != nil {
		t.Fatal(err)
	}
	out := relu.Forward(input).Data()
	want := []float32{0, 0, 2}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("ReLU[%d] = %f, want %f", i, out[i], want[i])
		}
	}
}
