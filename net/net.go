// Copyright 2025 Hydra ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package net compiles declarative network specifications into
// executable modules.
//
// A spec describes a feed-forward, convolutional or recurrent stack,
// or a composite Hydra of named heads joined into a shared body that
// fans out into named tails:
//
//	spec, _ := net.ParseSpec(configYAML)
//	backend := cpu.New()
//	res, err := net.BuildHydra(spec, map[string]tensor.Shape{
//	    "image": {3, 20, 20},
//	    "gyro":  {4},
//	}, backend)
//	outputs := res.Module.Forward(inputs)
package net

import (
	"github.com/hydra-ml/hydra/internal/net"
	"github.com/hydra-ml/hydra/internal/tensor"
)

// Spec is a declarative description of one buildable network unit.
type Spec = net.Spec

// BodySpec is a Hydra body: a Spec extended with a joiner.
type BodySpec = net.BodySpec

// JoinerSpec selects the strategy merging head outputs.
type JoinerSpec = net.JoinerSpec

// LayerDef is one layer entry: a plain width or a convolution
// hyperparameter tuple.
type LayerDef = net.LayerDef

// W wraps a plain width as a LayerDef.
func W(width int) LayerDef { return net.W(width) }

// C wraps convolution hyperparameters as a LayerDef.
func C(params ...int) LayerDef { return net.C(params...) }

// OptName is a three-state name field: absent, explicitly null, or
// set. It drives the out_activation override on final layers.
type OptName = net.OptName

// Name returns an OptName explicitly set to the given name.
func Name(name string) OptName { return net.Name(name) }

// Null returns an OptName that is present but explicitly null.
func Null() OptName { return net.Null() }

// ParseSpec decodes a YAML document into a Spec.
func ParseSpec(data []byte) (*Spec, error) { return net.ParseSpec(data) }

// Result is the outcome of building one spec node.
type Result[B tensor.Backend] = net.Result[B]

// RecurrentResult is the recurrent builder's outcome.
type RecurrentResult[B tensor.Backend] = net.RecurrentResult[B]

// HydraResult is the composite builder's outcome.
type HydraResult[B tensor.Backend] = net.HydraResult[B]

// Recurrent is a recurrent stack with an optional projection head.
type Recurrent[B tensor.Backend] = net.Recurrent[B]

// Joiner merges named feature streams into one tensor.
type Joiner[B tensor.Backend] = net.Joiner[B]

// Concat flattens and concatenates streams in a fixed key order.
type Concat[B tensor.Backend] = net.Concat[B]

// FiLM modulates a feature stream with scale and shift values computed
// from a conditioner stream.
type FiLM[B tensor.Backend] = net.FiLM[B]

// Hydra composes named heads, a joiner, a body and named tails.
type Hydra[B tensor.Backend] = net.Hydra[B]

// Build compiles a non-composite spec, dispatching on its type.
func Build[B tensor.Backend](spec *Spec, backend B) (*Result[B], error) {
	return net.Build(spec, backend)
}

// BuildMLP compiles a feed-forward spec.
func BuildMLP[B tensor.Backend](spec *Spec, backend B) (*Result[B], error) {
	return net.BuildMLP(spec, backend)
}

// BuildConv compiles a convolutional spec of rank 1, 2 or 3.
func BuildConv[B tensor.Backend](spec *Spec, backend B) (*Result[B], error) {
	return net.BuildConv(spec, backend)
}

// BuildRecurrent compiles an rnn, gru or lstm spec.
func BuildRecurrent[B tensor.Backend](spec *Spec, backend B) (*RecurrentResult[B], error) {
	return net.BuildRecurrent(spec, backend)
}

// BuildJoiner compiles a joiner spec against the head output shapes.
func BuildJoiner[B tensor.Backend](spec *JoinerSpec, headShapes map[string]tensor.Shape, backend B) (Joiner[B], tensor.Shape, error) {
	return net.BuildJoiner(spec, headShapes, backend)
}

// BuildHydra compiles a composite spec against per-head input shapes.
func BuildHydra[B tensor.Backend](spec *Spec, inShapes map[string]tensor.Shape, backend B) (*HydraResult[B], error) {
	return net.BuildHydra(spec, inShapes, backend)
}

// Errors

// NameNotFoundError reports an unknown activation or initializer name.
type NameNotFoundError = net.NameNotFoundError

// UnsupportedTypeError reports an unrecognized type discriminator.
type UnsupportedTypeError = net.UnsupportedTypeError

// ShapeMismatchError reports a rank or width assertion failure.
type ShapeMismatchError = net.ShapeMismatchError

// KeyNotFoundError reports a joiner referencing a missing head name.
type KeyNotFoundError = net.KeyNotFoundError
