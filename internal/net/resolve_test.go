package net

import (
	"errors"
	"math"
	"testing"

	"github.com/hydra-ml/hydra/internal/backend/cpu"
	"github.com/hydra-ml/hydra/internal/nn"
)

// TestNewActivation_CaseInsensitive tests catalog lookup.
func TestNewActivation_CaseInsensitive(t *testing.T) {
	for _, name := range []string{"relu", "ReLU", "RELU"} {
		act, err := newActivation[*cpu.CPUBackend](name)
		if err != nil {
			t.Errorf("newActivation(%q) failed: %v", name, err)
			continue
		}
		if _, ok := act.(*nn.ReLU[*cpu.CPUBackend]); !ok {
			t.Errorf("newActivation(%q) = %T, want ReLU", name, act)
		}
	}

	act, err := newActivation[*cpu.CPUBackend]("")
	if err != nil || act != nil {
		t.Errorf("Empty name should yield nil activation, got %v, %v", act, err)
	}

	var nameErr *NameNotFoundError
	if _, err := newActivation[*cpu.CPUBackend]("mish"); !errors.As(err, &nameErr) {
		t.Errorf("Expected NameNotFoundError, got %v", err)
	}
}

// TestActivationForLayer_Override tests the interior/last selection
// across the three out_activation states.
func TestActivationForLayer_Override(t *testing.T) {
	absent := &Spec{Activation: "relu"}
	if act, _ := activationForLayer[*cpu.CPUBackend](absent, true); act == nil {
		t.Error("Absent out_activation should inherit relu on the last layer")
	}

	null := &Spec{Activation: "relu", OutActivation: Null()}
	if act, _ := activationForLayer[*cpu.CPUBackend](null, true); act != nil {
		t.Errorf("Explicit null should suppress the last activation, got %T", act)
	}
	if act, _ := activationForLayer[*cpu.CPUBackend](null, false); act == nil {
		t.Error("Interior layers must keep relu despite the override")
	}

	named := &Spec{Activation: "relu", OutActivation: Name("tanh")}
	act, _ := activationForLayer[*cpu.CPUBackend](named, true)
	if _, ok := act.(*nn.Tanh[*cpu.CPUBackend]); !ok {
		t.Errorf("Named override should yield Tanh, got %T", act)
	}
}

// TestLookupInitializer_Names tests case and underscore tolerance.
func TestLookupInitializer_Names(t *testing.T) {
	for _, name := range []string{"orthogonal_", "Orthogonal_", "ORTHOGONAL", "orthogonal"} {
		if _, err := lookupInitializer(name); err != nil {
			t.Errorf("lookupInitializer(%q) failed: %v", name, err)
		}
	}

	var nameErr *NameNotFoundError
	if _, err := lookupInitializer("sparse_"); !errors.As(err, &nameErr) {
		t.Errorf("Expected NameNotFoundError, got %v", err)
	}
}

// TestInitializeWeights_GainPolicy tests that a gain-capable
// initializer scales with the activation's gain.
func TestInitializeWeights_GainPolicy(t *testing.T) {
	backend := cpu.New()

	// Orthogonal with relu gain: rows of W W^T should equal gain^2.
	layer := nn.NewLinear(32, 8, backend)
	model := nn.NewSequential[*cpu.CPUBackend](layer)
	if err := initializeWeights[*cpu.CPUBackend](model, "orthogonal_", "relu"); err != nil {
		t.Fatalf("initializeWeights failed: %v", err)
	}

	data := layer.Weight().Tensor().Data()
	var dot float64
	for k := 0; k < 32; k++ {
		dot += float64(data[k]) * float64(data[k])
	}
	if math.Abs(dot-2.0) > 1e-3 {
		t.Errorf("Row norm^2 = %f, want relu gain^2 = 2", dot)
	}
}

// TestInitializeWeights_SkipsNormalization tests that batch norm
// parameters are untouched.
func TestInitializeWeights_SkipsNormalization(t *testing.T) {
	backend := cpu.New()
	bn := nn.NewBatchNorm(4, backend)
	model := nn.NewSequential[*cpu.CPUBackend](nn.NewLinear(4, 4, backend), bn)

	if err := initializeWeights[*cpu.CPUBackend](model, "normal_", ""); err != nil {
		t.Fatalf("initializeWeights failed: %v", err)
	}

	// Gamma stays at its ones fill.
	for i, v := range bn.Parameters()[0].Tensor().Data() {
		if v != 1.0 {
			t.Errorf("Gamma[%d] = %f, want untouched 1.0", i, v)
		}
	}
}

// TestInitializeWeights_BiasAlwaysNormal tests the fixed bias policy.
func TestInitializeWeights_BiasAlwaysNormal(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewLinear(16, 64, backend)
	model := nn.NewSequential[*cpu.CPUBackend](layer)

	if err := initializeWeights[*cpu.CPUBackend](model, "orthogonal_", ""); err != nil {
		t.Fatalf("initializeWeights failed: %v", err)
	}

	// Zero-initialized biases must have been resampled.
	var nonzero int
	for _, v := range layer.Bias().Tensor().Data() {
		if v != 0 {
			nonzero++
		}
	}
	if nonzero == 0 {
		t.Error("Expected bias to be normally resampled, got all zeros")
	}
}

// TestInitializeWeights_RecurrentStack tests that a recurrent stack,
// whose Forward also returns a hidden state, can be initialized
// directly through the multi-weight path.
func TestInitializeWeights_RecurrentStack(t *testing.T) {
	backend := cpu.New()
	rnn := nn.NewRNN(nn.CellGRU, 24, 8, 1, false, backend)

	if err := initializeWeights[*cpu.CPUBackend](rnn, "orthogonal_", ""); err != nil {
		t.Fatalf("initializeWeights failed: %v", err)
	}

	// weight_ih_l0 is [3*8, 24], square, so orthogonal rows have unit norm.
	data := rnn.WeightParameters()[0].Tensor().Data()
	for i := 0; i < 24; i++ {
		var norm float64
		for k := 0; k < 24; k++ {
			norm += float64(data[i*24+k]) * float64(data[i*24+k])
		}
		if math.Abs(norm-1.0) > 1e-3 {
			t.Errorf("Row %d norm^2 = %f, want 1", i, norm)
		}
	}
}

// TestInitializeWeights_UnknownName tests the fail-fast lookup.
func TestInitializeWeights_UnknownName(t *testing.T) {
	backend := cpu.New()
	model := nn.NewSequential[*cpu.CPUBackend](nn.NewLinear(2, 2, backend))

	var nameErr *NameNotFoundError
	if err := initializeWeights[*cpu.CPUBackend](model, "chaotic_", "relu"); !errors.As(err, &nameErr) {
		t.Errorf("Expected NameNotFoundError, got %v", err)
	}
}
