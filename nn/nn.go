// Copyright 2025 Hydra ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/hydra-ml/hydra/internal/nn"
	"github.com/hydra-ml/hydra/internal/tensor"
)

// Module interface defines the common interface for all neural network modules.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter represents a trainable parameter in a neural network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(784, 128, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// ConvND represents a convolutional layer of spatial rank 1, 2 or 3.
type ConvND[B tensor.Backend] = nn.ConvND[B]

// NewConvND creates a new convolutional layer.
//
// Example:
//
//	backend := cpu.New()
//	conv := nn.NewConvND(2, 3, 16, 5, 2, 0, 1, backend) // 2D, in=3, out=16, kernel=5, stride=2
func NewConvND[B tensor.Backend](
	rank, inChannels, outChannels, kernelSize, stride, padding, dilation int,
	backend B,
) *ConvND[B] {
	return nn.NewConvND(rank, inChannels, outChannels, kernelSize, stride, padding, dilation, backend)
}

// BatchNorm represents a batch normalization layer over the channel axis.
type BatchNorm[B tensor.Backend] = nn.BatchNorm[B]

// NewBatchNorm creates a new batch normalization layer.
func NewBatchNorm[B tensor.Backend](numFeatures int, backend B) *BatchNorm[B] {
	return nn.NewBatchNorm(numFeatures, backend)
}

// Recurrent stacks

// CellKind selects the recurrent cell family of an RNN stack.
type CellKind = nn.CellKind

// Supported recurrent cell families.
const (
	CellRNN  = nn.CellRNN
	CellGRU  = nn.CellGRU
	CellLSTM = nn.CellLSTM
)

// RNN is a multi-layer, optionally bidirectional recurrent stack.
type RNN[B tensor.Backend] = nn.RNN[B]

// RNNState carries the final hidden (and for LSTM, cell) state.
type RNNState[B tensor.Backend] = nn.RNNState[B]

// NewRNN creates a recurrent stack over batch-first sequences.
//
// Example:
//
//	backend := cpu.New()
//	gru := nn.NewRNN(nn.CellGRU, 4, 8, 2, true, backend)
func NewRNN[B tensor.Backend](kind CellKind, inputSize, hiddenSize, numLayers int, bidirectional bool, backend B) *RNN[B] {
	return nn.NewRNN(kind, inputSize, hiddenSize, numLayers, bidirectional, backend)
}

// Containers

// Sequential chains modules, feeding each output into the next module.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a sequential container.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Identity passes its input through unchanged.
type Identity[B tensor.Backend] = nn.Identity[B]

// NewIdentity creates an identity module.
func NewIdentity[B tensor.Backend]() *Identity[B] {
	return nn.NewIdentity[B]()
}

// Flatten collapses all dimensions after the batch dimension.
type Flatten[B tensor.Backend] = nn.Flatten[B]

// NewFlatten creates a flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return nn.NewFlatten[B]()
}

// Activations

// ReLU applies the rectified linear unit.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a ReLU activation.
func NewReLU[B tensor.Backend]() *ReLU[B] { return nn.NewReLU[B]() }

// LeakyReLU applies the leaky rectified linear unit.
type LeakyReLU[B tensor.Backend] = nn.LeakyReLU[B]

// NewLeakyReLU creates a LeakyReLU activation.
func NewLeakyReLU[B tensor.Backend]() *LeakyReLU[B] { return nn.NewLeakyReLU[B]() }

// Sigmoid applies the logistic function.
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a Sigmoid activation.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] { return nn.NewSigmoid[B]() }

// Tanh applies the hyperbolic tangent.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a Tanh activation.
func NewTanh[B tensor.Backend]() *Tanh[B] { return nn.NewTanh[B]() }

// Softplus applies the smooth approximation of ReLU.
type Softplus[B tensor.Backend] = nn.Softplus[B]

// NewSoftplus creates a Softplus activation.
func NewSoftplus[B tensor.Backend]() *Softplus[B] { return nn.NewSoftplus[B]() }

// ELU applies the exponential linear unit.
type ELU[B tensor.Backend] = nn.ELU[B]

// NewELU creates an ELU activation.
func NewELU[B tensor.Backend]() *ELU[B] { return nn.NewELU[B]() }

// SELU applies the scaled exponential linear unit.
type SELU[B tensor.Backend] = nn.SELU[B]

// NewSELU creates a SELU activation.
func NewSELU[B tensor.Backend]() *SELU[B] { return nn.NewSELU[B]() }

// GELU applies the Gaussian error linear unit.
type GELU[B tensor.Backend] = nn.GELU[B]

// NewGELU creates a GELU activation.
func NewGELU[B tensor.Backend]() *GELU[B] { return nn.NewGELU[B]() }

// Weight initialization

// CalculateGain returns the recommended scaling gain for a nonlinearity.
func CalculateGain(nonlinearity string) (float64, error) {
	return nn.CalculateGain(nonlinearity)
}

// XavierUniform fills w with Xavier/Glorot uniform values.
func XavierUniform(w *tensor.RawTensor, gain float64) { nn.XavierUniform(w, gain) }

// XavierNormal fills w with Xavier/Glorot normal values.
func XavierNormal(w *tensor.RawTensor, gain float64) { nn.XavierNormal(w, gain) }

// KaimingUniform fills w with Kaiming/He uniform values.
func KaimingUniform(w *tensor.RawTensor, nonlinearity string) { nn.KaimingUniform(w, nonlinearity) }

// KaimingNormal fills w with Kaiming/He normal values.
func KaimingNormal(w *tensor.RawTensor, nonlinearity string) { nn.KaimingNormal(w, nonlinearity) }

// Orthogonal fills w with a (semi-)orthogonal matrix scaled by gain.
func Orthogonal(w *tensor.RawTensor, gain float64) { nn.Orthogonal(w, gain) }

// Normal fills w from N(mean, std²).
func Normal(w *tensor.RawTensor, mean, std float64) { nn.Normal(w, mean, std) }

// Uniform fills w from U(low, high).
func Uniform(w *tensor.RawTensor, low, high float64) { nn.Uniform(w, low, high) }

// Constant fills w with a single value.
func Constant(w *tensor.RawTensor, value float64) { nn.Constant(w, value) }
