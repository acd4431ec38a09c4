package tensor

// Backend defines the interface compute backends must implement.
//
// The set of operations is the one the network builder actually
// exercises: broadcast arithmetic for affine transforms and
// normalization, matmul for dense and recurrent layers, ConvND for the
// convolutional builders, and shape manipulation for flattening,
// joining and probing.
//
// Activation functions are optional per-backend capabilities exposed
// through extension interfaces in the nn package (the builder checks
// for them at layer construction time).
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// MatMul performs 2D matrix multiplication (M,K) @ (K,N) -> (M,N).
	MatMul(a, b *RawTensor) *RawTensor

	// ConvND performs N-dimensional convolution (N = 1, 2 or 3, taken
	// from the kernel rank).
	//
	// Input shape:  [batch, in_channels, spatial...]
	// Kernel shape: [out_channels, in_channels, kernel...]
	// Output shape: [batch, out_channels, outSpatial...] with
	//
	//	out = (in + 2*padding - dilation*(kernel-1) - 1) / stride + 1
	ConvND(input, kernel *RawTensor, stride, padding, dilation int) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor
	Cat(tensors []*RawTensor, dim int) *RawTensor
	Unsqueeze(x *RawTensor, dim int) *RawTensor
	Squeeze(x *RawTensor, dim int) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
