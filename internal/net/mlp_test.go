package net

import (
	"errors"
	"testing"

	"github.com/hydra-ml/hydra/internal/backend/cpu"
	"github.com/hydra-ml/hydra/internal/nn"
	"github.com/hydra-ml/hydra/internal/tensor"
)

// TestBuildMLP_Identity tests that an empty layer list builds an
// identity pass-through.
func TestBuildMLP_Identity(t *testing.T) {
	backend := cpu.New()
	spec := &Spec{Type: "mlp", InShape: tensor.Shape{4}}

	res, err := BuildMLP(spec, backend)
	if err != nil {
		t.Fatalf("BuildMLP failed: %v", err)
	}
	if !res.OutShape.Equal(tensor.Shape{4}) {
		t.Errorf("Expected out shape {4}, got %v", res.OutShape)
	}
	if !spec.OutShapeInferred.Equal(tensor.Shape{4}) {
		t.Errorf("Expected stamped shape {4}, got %v", spec.OutShapeInferred)
	}

	input, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 4}, backend)
	if err != nil {
		t.Fatal(err)
	}
	out := res.Module.Forward(input)
	for i, v := range out.Data() {
		if v != input.Data()[i] {
			t.Errorf("Identity changed value at %d: %f", i, v)
		}
	}
}

// TestBuildMLP_OutShapeIsLastWidth tests that the inferred shape is
// the last effective layer width.
func TestBuildMLP_OutShapeIsLastWidth(t *testing.T) {
	backend := cpu.New()

	spec := &Spec{
		Type:       "mlp",
		InShape:    tensor.Shape{10},
		Layers:     []LayerDef{W(64), W(32)},
		Activation: "relu",
	}
	res, err := BuildMLP(spec, backend)
	if err != nil {
		t.Fatalf("BuildMLP failed: %v", err)
	}
	if !res.OutShape.Equal(tensor.Shape{32}) {
		t.Errorf("Expected {32}, got %v", res.OutShape)
	}

	// out_shape appends one more effective layer.
	withOut := &Spec{
		Type:       "mlp",
		InShape:    tensor.Shape{10},
		Layers:     []LayerDef{W(64), W(32)},
		OutShape:   tensor.Shape{2},
		Activation: "relu",
	}
	res, err = BuildMLP(withOut, backend)
	if err != nil {
		t.Fatalf("BuildMLP failed: %v", err)
	}
	if !res.OutShape.Equal(tensor.Shape{2}) {
		t.Errorf("Expected {2}, got %v", res.OutShape)
	}
	if !withOut.OutShapeInferred.Equal(tensor.Shape{2}) {
		t.Errorf("Expected stamped {2}, got %v", withOut.OutShapeInferred)
	}
}

// TestBuildMLP_ForwardShape tests a batched forward pass.
func TestBuildMLP_ForwardShape(t *testing.T) {
	backend := cpu.New()
	spec := &Spec{
		Type:       "mlp",
		InShape:    tensor.Shape{10},
		Layers:     []LayerDef{W(64), W(32)},
		Activation: "relu",
		InitFn:     "orthogonal_",
	}
	res, err := BuildMLP(spec, backend)
	if err != nil {
		t.Fatalf("BuildMLP failed: %v", err)
	}

	out := res.Module.Forward(tensor.Rand[float32](tensor.Shape{8, 10}, backend))
	if !out.Shape().Equal(tensor.Shape{8, 32}) {
		t.Errorf("Expected {8,32}, got %v", out.Shape())
	}
}

// TestBuildMLP_OutActivationNullOverride tests that an explicit null
// out_activation suppresses the final activation while interior
// layers keep theirs.
func TestBuildMLP_OutActivationNullOverride(t *testing.T) {
	backend := cpu.New()
	spec := &Spec{
		Type:          "mlp",
		InShape:       tensor.Shape{4},
		Layers:        []LayerDef{W(8)},
		OutShape:      tensor.Shape{2},
		Activation:    "relu",
		OutActivation: Null(),
	}
	res, err := BuildMLP(spec, backend)
	if err != nil {
		t.Fatalf("BuildMLP failed: %v", err)
	}

	// Expect Linear, ReLU, Linear and nothing after the final Linear.
	seq, ok := res.Module.(*nn.Sequential[*cpu.CPUBackend])
	if !ok {
		t.Fatalf("Expected Sequential, got %T", res.Module)
	}
	if seq.Len() != 3 {
		t.Fatalf("Expected 3 modules, got %d", seq.Len())
	}
	if _, ok := seq.Module(1).(*nn.ReLU[*cpu.CPUBackend]); !ok {
		t.Errorf("Expected interior ReLU, got %T", seq.Module(1))
	}
	if _, ok := seq.Module(2).(*nn.Linear[*cpu.CPUBackend]); !ok {
		t.Errorf("Expected bare final Linear, got %T", seq.Module(2))
	}

	// Negative outputs must survive, proving no final ReLU.
	out := res.Module.Forward(tensor.Randn[float32](tensor.Shape{64, 4}, backend))
	negative := false
	for _, v := range out.Data() {
		if v < 0 {
			negative = true
			break
		}
	}
	if !negative {
		t.Error("Expected some negative outputs without a final activation")
	}
}

// TestBuildMLP_OutActivationNamedOverride tests a named override on
// the final layer.
func TestBuildMLP_OutActivationNamedOverride(t *testing.T) {
	backend := cpu.New()
	spec := &Spec{
		Type:          "mlp",
		InShape:       tensor.Shape{4},
		Layers:        []LayerDef{W(8)},
		OutShape:      tensor.Shape{2},
		Activation:    "relu",
		OutActivation: Name("tanh"),
	}
	res, err := BuildMLP(spec, backend)
	if err != nil {
		t.Fatalf("BuildMLP failed: %v", err)
	}

	seq := res.Module.(*nn.Sequential[*cpu.CPUBackend])
	if _, ok := seq.Module(seq.Len() - 1).(*nn.Tanh[*cpu.CPUBackend]); !ok {
		t.Errorf("Expected final Tanh, got %T", seq.Module(seq.Len()-1))
	}
}

// TestBuildMLP_BatchNormSkipsLastLayer tests normalization placement.
func TestBuildMLP_BatchNormSkipsLastLayer(t *testing.T) {
	backend := cpu.New()
	spec := &Spec{
		Type:      "mlp",
		InShape:   tensor.Shape{4},
		Layers:    []LayerDef{W(8), W(2)},
		BatchNorm: true,
	}
	res, err := BuildMLP(spec, backend)
	if err != nil {
		t.Fatalf("BuildMLP failed: %v", err)
	}

	seq := res.Module.(*nn.Sequential[*cpu.CPUBackend])
	// Linear, BatchNorm, Linear: no normalization after the last layer.
	if seq.Len() != 3 {
		t.Fatalf("Expected 3 modules, got %d", seq.Len())
	}
	if _, ok := seq.Module(1).(*nn.BatchNorm[*cpu.CPUBackend]); !ok {
		t.Errorf("Expected BatchNorm after first Linear, got %T", seq.Module(1))
	}
	if _, ok := seq.Module(2).(*nn.Linear[*cpu.CPUBackend]); !ok {
		t.Errorf("Expected final Linear, got %T", seq.Module(2))
	}
}

// TestBuildMLP_Errors tests fail-fast validation.
func TestBuildMLP_Errors(t *testing.T) {
	backend := cpu.New()

	var shapeErr *ShapeMismatchError
	_, err := BuildMLP(&Spec{Type: "mlp", InShape: tensor.Shape{3, 20, 20}}, backend)
	if !errors.As(err, &shapeErr) {
		t.Errorf("Expected ShapeMismatchError for non-flat in_shape, got %v", err)
	}

	var nameErr *NameNotFoundError
	_, err = BuildMLP(&Spec{
		Type:       "mlp",
		InShape:    tensor.Shape{4},
		Layers:     []LayerDef{W(8)},
		Activation: "swishish",
	}, backend)
	if !errors.As(err, &nameErr) {
		t.Errorf("Expected NameNotFoundError for unknown activation, got %v", err)
	}
}
