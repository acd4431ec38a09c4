package nn

import (
	"github.com/hydra-ml/hydra/internal/tensor"
)

// Activation capability interfaces. Backends advertise the activations
// they support by implementing these; the modules below discover them
// with a type assertion at forward time.

// ReLUBackend is implemented by backends that support ReLU.
type ReLUBackend interface {
	ReLU(*tensor.RawTensor) *tensor.RawTensor
}

// LeakyReLUBackend is implemented by backends that support LeakyReLU.
type LeakyReLUBackend interface {
	LeakyReLU(x *tensor.RawTensor, negSlope float64) *tensor.RawTensor
}

// SigmoidBackend is implemented by backends that support Sigmoid.
type SigmoidBackend interface {
	Sigmoid(*tensor.RawTensor) *tensor.RawTensor
}

// TanhBackend is implemented by backends that support Tanh.
type TanhBackend interface {
	Tanh(*tensor.RawTensor) *tensor.RawTensor
}

// SoftplusBackend is implemented by backends that support Softplus.
type SoftplusBackend interface {
	Softplus(*tensor.RawTensor) *tensor.RawTensor
}

// ELUBackend is implemented by backends that support ELU.
type ELUBackend interface {
	ELU(x *tensor.RawTensor, alpha float64) *tensor.RawTensor
}

// SELUBackend is implemented by backends that support SELU.
type SELUBackend interface {
	SELU(*tensor.RawTensor) *tensor.RawTensor
}

// GELUBackend is implemented by backends that support GELU.
type GELUBackend interface {
	GELU(*tensor.RawTensor) *tensor.RawTensor
}

// ReLU applies f(x) = max(0, x).
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a new ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies the activation.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	if ab, ok := any(backend).(ReLUBackend); ok {
		return tensor.New[float32, B](ab.ReLU(input.Raw()), backend)
	}
	panic("ReLU: backend must implement the ReLU operation")
}

// Parameters returns nil (no trainable parameters).
func (r *ReLU[B]) Parameters() []*Parameter[B] { return nil }

// LeakyReLU applies f(x) = x for x >= 0, negSlope*x otherwise.
type LeakyReLU[B tensor.Backend] struct {
	NegSlope float64
}

// NewLeakyReLU creates a LeakyReLU with the default 0.01 negative slope.
func NewLeakyReLU[B tensor.Backend]() *LeakyReLU[B] {
	return &LeakyReLU[B]{NegSlope: 0.01}
}

// Forward applies the activation.
func (l *LeakyReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	if ab, ok := any(backend).(LeakyReLUBackend); ok {
		return tensor.New[float32, B](ab.LeakyReLU(input.Raw(), l.NegSlope), backend)
	}
	panic("LeakyReLU: backend must implement the LeakyReLU operation")
}

// Parameters returns nil.
func (l *LeakyReLU[B]) Parameters() []*Parameter[B] { return nil }

// Sigmoid applies f(x) = 1 / (1 + exp(-x)).
type Sigmoid[B tensor.Backend] struct{}

// NewSigmoid creates a new Sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return &Sigmoid[B]{}
}

// Forward applies the activation.
func (s *Sigmoid[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	if ab, ok := any(backend).(SigmoidBackend); ok {
		return tensor.New[float32, B](ab.Sigmoid(input.Raw()), backend)
	}
	panic("Sigmoid: backend must implement the Sigmoid operation")
}

// Parameters returns nil.
func (s *Sigmoid[B]) Parameters() []*Parameter[B] { return nil }

// Tanh applies the hyperbolic tangent.
type Tanh[B tensor.Backend] struct{}

// NewTanh creates a new Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Forward applies the activation.
func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	if ab, ok := any(backend).(TanhBackend); ok {
		return tensor.New[float32, B](ab.Tanh(input.Raw()), backend)
	}
	panic("Tanh: backend must implement the Tanh operation")
}

// Parameters returns nil.
func (t *Tanh[B]) Parameters() []*Parameter[B] { return nil }

// Softplus applies f(x) = log(1 + exp(x)).
type Softplus[B tensor.Backend] struct{}

// NewSoftplus creates a new Softplus activation module.
func NewSoftplus[B tensor.Backend]() *Softplus[B] {
	return &Softplus[B]{}
}

// Forward applies the activation.
func (s *Softplus[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	if ab, ok := any(backend).(SoftplusBackend); ok {
		return tensor.New[float32, B](ab.Softplus(input.Raw()), backend)
	}
	panic("Softplus: backend must implement the Softplus operation")
}

// Parameters returns nil.
func (s *Softplus[B]) Parameters() []*Parameter[B] { return nil }

// ELU applies f(x) = x for x > 0, alpha*(exp(x)-1) otherwise.
type ELU[B tensor.Backend] struct {
	Alpha float64
}

// NewELU creates an ELU with the default alpha of 1.0.
func NewELU[B tensor.Backend]() *ELU[B] {
	return &ELU[B]{Alpha: 1.0}
}

// Forward applies the activation.
func (e *ELU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	if ab, ok := any(backend).(ELUBackend); ok {
		return tensor.New[float32, B](ab.ELU(input.Raw(), e.Alpha), backend)
	}
	panic("ELU: backend must implement the ELU operation")
}

// Parameters returns nil.
func (e *ELU[B]) Parameters() []*Parameter[B] { return nil }

// SELU applies the self-normalizing ELU variant with fixed constants.
type SELU[B tensor.Backend] struct{}

// NewSELU creates a new SELU activation module.
func NewSELU[B tensor.Backend]() *SELU[B] {
	return &SELU[B]{}
}

// Forward applies the activation.
func (s *SELU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	if ab, ok := any(backend).(SELUBackend); ok {
		return tensor.New[float32, B](ab.SELU(input.Raw()), backend)
	}
	panic("SELU: backend must implement the SELU operation")
}

// Parameters returns nil.
func (s *SELU[B]) Parameters() []*Parameter[B] { return nil }

// GELU applies the Gaussian error linear unit.
type GELU[B tensor.Backend] struct{}

// NewGELU creates a new GELU activation module.
func NewGELU[B tensor.Backend]() *GELU[B] {
	return &GELU[B]{}
}

// Forward applies the activation.
func (g *GELU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	if ab, ok := any(backend).(GELUBackend); ok {
		return tensor.New[float32, B](ab.GELU(input.Raw()), backend)
	}
	panic("GELU: backend must implement the GELU operation")
}

// Parameters returns nil.
func (g *GELU[B]) Parameters() []*Parameter[B] { return nil }
