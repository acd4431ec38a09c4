package net

import (
	"strings"

	"github.com/hydra-ml/hydra/internal/nn"
	"github.com/hydra-ml/hydra/internal/tensor"
)

// canonName lowercases a catalog name and strips the trailing
// underscore of torch-style initializer names.
func canonName(name string) string {
	return strings.TrimSuffix(strings.ToLower(name), "_")
}

// newActivation instantiates the named activation with default
// parameters. An empty name yields nil, meaning no activation layer.
// Lookup is case-insensitive over a closed catalog.
func newActivation[B tensor.Backend](name string) (nn.Module[B], error) {
	switch canonName(name) {
	case "":
		return nil, nil
	case "relu":
		return nn.NewReLU[B](), nil
	case "leaky_relu", "leakyrelu":
		return nn.NewLeakyReLU[B](), nil
	case "sigmoid":
		return nn.NewSigmoid[B](), nil
	case "tanh":
		return nn.NewTanh[B](), nil
	case "softplus":
		return nn.NewSoftplus[B](), nil
	case "elu":
		return nn.NewELU[B](), nil
	case "selu":
		return nn.NewSELU[B](), nil
	case "gelu":
		return nn.NewGELU[B](), nil
	default:
		return nil, &NameNotFoundError{Name: name, Catalog: "activation"}
	}
}

// activationForLayer resolves the activation for one layer position.
// Interior layers use spec.Activation. The last layer uses
// OutActivation whenever its key is present, null included, and falls
// back to spec.Activation otherwise.
func activationForLayer[B tensor.Backend](spec *Spec, isLastLayer bool) (nn.Module[B], error) {
	name := spec.Activation
	if isLastLayer && spec.OutActivation.Present() {
		name = spec.OutActivation.Value()
	}
	return newActivation[B](name)
}

// initializer is one entry of the weight-initialization catalog. At
// most one of withGain and withNonlinearity is non-nil; plain is the
// fallback taking only the weight tensor.
type initializer struct {
	plain            func(w *tensor.RawTensor)
	withGain         func(w *tensor.RawTensor, gain float64)
	withNonlinearity func(w *tensor.RawTensor, nonlinearity string)
}

// lookupInitializer resolves an initializer name case-insensitively
// over the closed catalog. Torch-style trailing underscores are
// accepted.
func lookupInitializer(name string) (*initializer, error) {
	switch canonName(name) {
	case "xavier_uniform":
		return &initializer{
			plain:    func(w *tensor.RawTensor) { nn.XavierUniform(w, 1.0) },
			withGain: nn.XavierUniform,
		}, nil
	case "xavier_normal":
		return &initializer{
			plain:    func(w *tensor.RawTensor) { nn.XavierNormal(w, 1.0) },
			withGain: nn.XavierNormal,
		}, nil
	case "kaiming_uniform":
		return &initializer{
			plain:            func(w *tensor.RawTensor) { nn.KaimingUniform(w, "leaky_relu") },
			withNonlinearity: nn.KaimingUniform,
		}, nil
	case "kaiming_normal":
		return &initializer{
			plain:            func(w *tensor.RawTensor) { nn.KaimingNormal(w, "leaky_relu") },
			withNonlinearity: nn.KaimingNormal,
		}, nil
	case "orthogonal":
		return &initializer{
			plain:    func(w *tensor.RawTensor) { nn.Orthogonal(w, 1.0) },
			withGain: nn.Orthogonal,
		}, nil
	case "normal":
		return &initializer{
			plain: func(w *tensor.RawTensor) { nn.Normal(w, 0.0, 1.0) },
		}, nil
	case "uniform":
		return &initializer{
			plain: func(w *tensor.RawTensor) { nn.Uniform(w, 0.0, 1.0) },
		}, nil
	default:
		return nil, &NameNotFoundError{Name: name, Catalog: "initializer"}
	}
}

// gainSupported lists the nonlinearities a gain can be computed for.
var gainSupported = map[string]bool{
	"linear":           true,
	"conv1d":           true,
	"conv2d":           true,
	"conv3d":           true,
	"conv_transpose1d": true,
	"conv_transpose2d": true,
	"conv_transpose3d": true,
	"sigmoid":          true,
	"tanh":             true,
	"relu":             true,
	"leaky_relu":       true,
}

// applyInit initializes one weight tensor per the activation policy:
// no activation hint means a plain call; a gain-capable initializer
// paired with a gain-supported activation gets the activation's
// recommended gain; a nonlinearity-capable initializer gets the
// activation name; anything else falls back to a plain call.
func (f *initializer) applyInit(w *tensor.RawTensor, activation string) {
	act := canonName(activation)
	switch {
	case act == "":
		f.plain(w)
	case f.withGain != nil && gainSupported[act]:
		gain, err := nn.CalculateGain(act)
		if err != nil {
			f.plain(w)
			return
		}
		f.withGain(w, gain)
	case f.withNonlinearity != nil:
		f.withNonlinearity(w, act)
	default:
		f.plain(w)
	}
}

// weightedModule is satisfied by layers owning a single weight and
// bias pair, such as Linear and ConvND.
type weightedModule[B tensor.Backend] interface {
	Weight() *nn.Parameter[B]
	Bias() *nn.Parameter[B]
}

// multiWeightModule is satisfied by layers owning several weight and
// bias tensors, such as recurrent stacks.
type multiWeightModule[B tensor.Backend] interface {
	WeightParameters() []*nn.Parameter[B]
	BiasParameters() []*nn.Parameter[B]
}

// initializeWeights applies the named initializer to every
// weight-bearing submodule of m, recursively, skipping normalization
// layers. Biases always receive a standard normal fill regardless of
// the initializer. m is any so recurrent stacks, whose Forward also
// returns a state, can be initialized alongside plain modules.
func initializeWeights[B tensor.Backend](m any, initName, activation string) error {
	initFn, err := lookupInitializer(initName)
	if err != nil {
		return err
	}
	initModule[B](m, initFn, activation)
	return nil
}

func initModule[B tensor.Backend](m any, initFn *initializer, activation string) {
	if _, ok := m.(nn.NormalizationModule); ok {
		return
	}

	switch mod := m.(type) {
	case *nn.Sequential[B]:
		for _, sub := range mod.Modules() {
			initModule[B](sub, initFn, activation)
		}
	case weightedModule[B]:
		initFn.applyInit(mod.Weight().Tensor().Raw(), activation)
		if bias := mod.Bias(); bias != nil {
			nn.Normal(bias.Tensor().Raw(), 0.0, 1.0)
		}
	case multiWeightModule[B]:
		for _, w := range mod.WeightParameters() {
			initFn.applyInit(w.Tensor().Raw(), activation)
		}
		for _, b := range mod.BiasParameters() {
			nn.Normal(b.Tensor().Raw(), 0.0, 1.0)
		}
	}
}
