package net

import (
	"errors"
	"testing"

	"github.com/hydra-ml/hydra/internal/backend/cpu"
	"github.com/hydra-ml/hydra/internal/tensor"
)

// TestBuildRecurrent_BidirectionalOutShape tests the dirs*hidden
// inference.
func TestBuildRecurrent_BidirectionalOutShape(t *testing.T) {
	backend := cpu.New()
	spec := &Spec{
		Type:          "gru",
		InShape:       tensor.Shape{4},
		Layers:        []LayerDef{W(8), W(8)},
		Bidirectional: true,
	}

	res, err := BuildRecurrent(spec, backend)
	if err != nil {
		t.Fatalf("BuildRecurrent failed: %v", err)
	}
	if !res.OutShape.Equal(tensor.Shape{16}) {
		t.Errorf("Expected {16}, got %v", res.OutShape)
	}
	if !spec.OutShapeInferred.Equal(tensor.Shape{16}) {
		t.Errorf("Expected stamped {16}, got %v", spec.OutShapeInferred)
	}

	// Without a projection the module returns the full sequence.
	out, state := res.Module.ForwardState(tensor.Rand[float32](tensor.Shape{2, 5, 4}, backend))
	if !out.Shape().Equal(tensor.Shape{2, 5, 16}) {
		t.Errorf("Expected sequence {2,5,16}, got %v", out.Shape())
	}
	if !state.H.Shape().Equal(tensor.Shape{4, 2, 8}) {
		t.Errorf("Expected h_n {4,2,8}, got %v", state.H.Shape())
	}
}

// TestBuildRecurrent_Projection tests the optional projection head.
func TestBuildRecurrent_Projection(t *testing.T) {
	backend := cpu.New()
	spec := &Spec{
		Type:          "gru",
		InShape:       tensor.Shape{4},
		Layers:        []LayerDef{W(8), W(8)},
		Bidirectional: true,
		OutShape:      tensor.Shape{3},
	}

	res, err := BuildRecurrent(spec, backend)
	if err != nil {
		t.Fatalf("BuildRecurrent failed: %v", err)
	}
	if !res.OutShape.Equal(tensor.Shape{3}) {
		t.Errorf("Expected {3}, got %v", res.OutShape)
	}

	// With a projection the output is the projected final state.
	out, state := res.Module.ForwardState(tensor.Rand[float32](tensor.Shape{2, 5, 4}, backend))
	if !out.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("Expected {2,3}, got %v", out.Shape())
	}
	if state == nil || state.H == nil {
		t.Error("Expected the raw state alongside the projection")
	}
}

// TestBuildRecurrent_LSTMState tests cell state passthrough.
func TestBuildRecurrent_LSTMState(t *testing.T) {
	backend := cpu.New()
	spec := &Spec{
		Type:    "lstm",
		InShape: tensor.Shape{4},
		Layers:  []LayerDef{W(6)},
	}

	res, err := BuildRecurrent(spec, backend)
	if err != nil {
		t.Fatalf("BuildRecurrent failed: %v", err)
	}
	_, state := res.Module.ForwardState(tensor.Rand[float32](tensor.Shape{2, 3, 4}, backend))
	if state.C == nil {
		t.Error("Expected LSTM cell state")
	}
}

// TestBuildRecurrent_NonUniformWidths tests the uniform-width
// invariant.
func TestBuildRecurrent_NonUniformWidths(t *testing.T) {
	backend := cpu.New()
	spec := &Spec{
		Type:    "gru",
		InShape: tensor.Shape{4},
		Layers:  []LayerDef{W(8), W(16)},
	}

	var shapeErr *ShapeMismatchError
	_, err := BuildRecurrent(spec, backend)
	if !errors.As(err, &shapeErr) {
		t.Errorf("Expected ShapeMismatchError, got %v", err)
	}
}

// TestBuild_DispatchesRecurrent tests the dispatch path for recurrent
// types.
func TestBuild_DispatchesRecurrent(t *testing.T) {
	backend := cpu.New()
	spec := &Spec{
		Type:    "rnn",
		InShape: tensor.Shape{4},
		Layers:  []LayerDef{W(8)},
	}

	res, err := Build(spec, backend)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !res.OutShape.Equal(tensor.Shape{8}) {
		t.Errorf("Expected {8}, got %v", res.OutShape)
	}
}

// TestBuild_UnsupportedType tests the closed type enumeration.
func TestBuild_UnsupportedType(t *testing.T) {
	backend := cpu.New()

	var typeErr *UnsupportedTypeError
	_, err := Build(&Spec{Type: "transformer", InShape: tensor.Shape{4}}, backend)
	if !errors.As(err, &typeErr) {
		t.Errorf("Expected UnsupportedTypeError, got %v", err)
	}
}
