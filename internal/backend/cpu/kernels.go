package cpu

import (
	"github.com/hydra-ml/hydra/internal/tensor"
)

func addF32(x, y float32) float32 { return x + y }
func subF32(x, y float32) float32 { return x - y }
func mulF32(x, y float32) float32 { return x * y }
func divF32(x, y float32) float32 { return x / y }

func addF64(x, y float64) float64 { return x + y }
func subF64(x, y float64) float64 { return x - y }
func mulF64(x, y float64) float64 { return x * y }
func divF64(x, y float64) float64 { return x / y }

// binaryVectorized applies op element by element over same-shape inputs.
// The tight loop autovectorizes for the arithmetic ops above.
func binaryVectorized[T float32 | float64](dst, a, b []T, op func(x, y T) T) {
	for i := range dst {
		dst[i] = op(a[i], b[i])
	}
}

// binaryBroadcast applies op with NumPy-style broadcasting.
func binaryBroadcast[T float32 | float64](dst, a, b []T, aShape, bShape, outShape tensor.Shape, op func(x, y T) T) {
	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)

	for i := range dst {
		dst[i] = op(a[flatIndex(i, outStrides, aStrides)], b[flatIndex(i, outStrides, bStrides)])
	}
}

// broadcastStrides computes strides for broadcasting inShape to outShape.
// Broadcast dimensions (size 1 or missing) get stride 0.
func broadcastStrides(inShape, outShape tensor.Shape) []int {
	outDim := len(outShape)
	strides := make([]int, outDim)

	inDim := len(inShape)
	offset := outDim - inDim
	origStrides := inShape.ComputeStrides()

	for i := 0; i < outDim; i++ {
		inIdx := i - offset
		switch {
		case inIdx < 0 || inIdx >= inDim:
			strides[i] = 0
		case inShape[inIdx] == 1:
			strides[i] = 0
		default:
			strides[i] = origStrides[inIdx]
		}
	}

	return strides
}

// flatIndex maps an output flat index to a source flat index given the
// output strides and the broadcast-adjusted source strides.
func flatIndex(outIdx int, outStrides, inStrides []int) int {
	idx := 0
	for i := 0; i < len(outStrides); i++ {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		idx += coord * inStrides[i]
	}
	return idx
}

// transposeData permutes src (with srcShape) into dst according to axes.
func transposeData[T float32 | float64](dst, src []T, srcShape tensor.Shape, axes []int) {
	ndim := len(srcShape)
	srcStrides := srcShape.ComputeStrides()

	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		newShape[i] = srcShape[ax]
	}
	dstStrides := newShape.ComputeStrides()

	coords := make([]int, ndim)
	for dstIdx := range dst {
		rem := dstIdx
		for i := 0; i < ndim; i++ {
			coords[i] = rem / dstStrides[i]
			rem %= dstStrides[i]
		}
		srcIdx := 0
		for i, ax := range axes {
			srcIdx += coords[i] * srcStrides[ax]
		}
		dst[dstIdx] = src[srcIdx]
	}
}
