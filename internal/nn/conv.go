package nn

import (
	"fmt"

	"github.com/hydra-ml/hydra/internal/tensor"
)

// ConvND is an N-dimensional convolutional layer (N = 1, 2 or 3).
//
// Input shape:  [batch, in_channels, spatial...]
// Weight shape: [out_channels, in_channels, kernel...]
// Bias shape:   [out_channels]
// Output shape: [batch, out_channels, outSpatial...] with
//
//	out = (in + 2*padding - dilation*(kernel-1) - 1) / stride + 1
//
// The kernel is square across all spatial dimensions; stride, padding
// and dilation are uniform, matching the builder's conv layer tuples.
type ConvND[B tensor.Backend] struct {
	rank        int
	inChannels  int
	outChannels int
	kernelSize  int
	stride      int
	padding     int
	dilation    int

	weight *Parameter[B]
	bias   *Parameter[B]

	backend B
}

// NewConvND creates a convolutional layer of the given spatial rank with
// Xavier-initialized weights and zero biases.
func NewConvND[B tensor.Backend](
	rank, inChannels, outChannels, kernelSize, stride, padding, dilation int,
	backend B,
) *ConvND[B] {
	if rank < 1 || rank > 3 {
		panic(fmt.Sprintf("convnd: unsupported rank %d", rank))
	}
	if inChannels <= 0 || outChannels <= 0 {
		panic(fmt.Sprintf("convnd: invalid channels in=%d, out=%d", inChannels, outChannels))
	}
	if kernelSize <= 0 || stride <= 0 || dilation <= 0 || padding < 0 {
		panic(fmt.Sprintf("convnd: invalid kernel=%d stride=%d padding=%d dilation=%d",
			kernelSize, stride, padding, dilation))
	}

	weightShape := tensor.Shape{outChannels, inChannels}
	for i := 0; i < rank; i++ {
		weightShape = append(weightShape, kernelSize)
	}

	weight := tensor.Zeros[float32](weightShape, backend)
	XavierUniform(weight.Raw(), 1.0)

	bias := tensor.Zeros[float32](tensor.Shape{outChannels}, backend)

	return &ConvND[B]{
		rank:        rank,
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  kernelSize,
		stride:      stride,
		padding:     padding,
		dilation:    dilation,
		weight:      NewParameter("weight", weight),
		bias:        NewParameter("bias", bias),
		backend:     backend,
	}
}

// Forward performs the convolution and adds the bias.
func (c *ConvND[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) != c.rank+2 {
		panic(fmt.Sprintf("ConvND.Forward: expected %dD input [N,C,spatial...], got %dD", c.rank+2, len(inputShape)))
	}
	if inputShape[1] != c.inChannels {
		panic(fmt.Sprintf("ConvND.Forward: input channels %d != expected %d", inputShape[1], c.inChannels))
	}

	outputRaw := c.backend.ConvND(input.Raw(), c.weight.Tensor().Raw(), c.stride, c.padding, c.dilation)
	output := tensor.New[float32, B](outputRaw, c.backend)

	if c.bias != nil {
		// Reshape bias to [1, out_channels, 1...] for broadcasting.
		biasShape := make([]int, len(output.Shape()))
		for i := range biasShape {
			biasShape[i] = 1
		}
		biasShape[1] = c.outChannels
		output = output.Add(c.bias.Tensor().Reshape(biasShape...))
	}

	return output
}

// Parameters returns all trainable parameters.
func (c *ConvND[B]) Parameters() []*Parameter[B] {
	if c.bias != nil {
		return []*Parameter[B]{c.weight, c.bias}
	}
	return []*Parameter[B]{c.weight}
}

// Weight returns the weight parameter.
func (c *ConvND[B]) Weight() *Parameter[B] {
	return c.weight
}

// Bias returns the bias parameter, or nil.
func (c *ConvND[B]) Bias() *Parameter[B] {
	return c.bias
}

// OutChannels returns the number of output channels.
func (c *ConvND[B]) OutChannels() int {
	return c.outChannels
}

// String returns a string representation of the layer.
func (c *ConvND[B]) String() string {
	return fmt.Sprintf("Conv%dD(in_channels=%d, out_channels=%d, kernel_size=%d, stride=%d, padding=%d, dilation=%d)",
		c.rank, c.inChannels, c.outChannels, c.kernelSize, c.stride, c.padding, c.dilation)
}
