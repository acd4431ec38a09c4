package cpu

import (
	"fmt"

	"github.com/hydra-ml/hydra/internal/tensor"
)

// ConvND performs N-dimensional convolution (N = 1, 2 or 3) using the
// im2col algorithm: input patches are unrolled into a column matrix, the
// kernel is viewed as a [out_channels, in_channels*K] matrix, and the
// convolution reduces to one matmul per batch.
//
// Input shape:  [batch, in_channels, spatial...]
// Kernel shape: [out_channels, in_channels, kernel...]
// Output shape: [batch, out_channels, outSpatial...] with
//
//	out = (in + 2*padding - dilation*(kernel-1) - 1) / stride + 1
func (cpu *CPUBackend) ConvND(input, kernel *tensor.RawTensor, stride, padding, dilation int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	rank := len(kernelShape) - 2
	if rank < 1 || rank > 3 {
		panic(fmt.Sprintf("convnd: kernel must be 3D-5D [C_out,C_in,K...], got %dD", len(kernelShape)))
	}
	if len(inputShape) != rank+2 {
		panic(fmt.Sprintf("convnd: input must be %dD [N,C,spatial...], got %dD", rank+2, len(inputShape)))
	}
	if stride <= 0 || dilation <= 0 || padding < 0 {
		panic(fmt.Sprintf("convnd: invalid stride=%d padding=%d dilation=%d", stride, padding, dilation))
	}

	batch := inputShape[0]
	cIn := inputShape[1]
	cOut := kernelShape[0]
	if cIn != kernelShape[1] {
		panic(fmt.Sprintf("convnd: input channels %d != kernel channels %d", cIn, kernelShape[1]))
	}

	spatial := inputShape[2:]
	kSize := kernelShape[2:]
	outSpatial := make(tensor.Shape, rank)
	for i := 0; i < rank; i++ {
		outSpatial[i] = (spatial[i]+2*padding-dilation*(kSize[i]-1)-1)/stride + 1
		if outSpatial[i] <= 0 {
			panic(fmt.Sprintf("convnd: non-positive output size %d along spatial dim %d (check kernel/stride/padding/dilation)",
				outSpatial[i], i))
		}
	}

	outShape := append(tensor.Shape{batch, cOut}, outSpatial...)
	output, err := tensor.NewRaw(outShape, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("convnd: failed to create output tensor: %v", err))
	}

	switch input.DType() {
	case tensor.Float32:
		convND(output.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(),
			batch, cIn, cOut, spatial, kSize, outSpatial, stride, padding, dilation)
	case tensor.Float64:
		convND(output.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(),
			batch, cIn, cOut, spatial, kSize, outSpatial, stride, padding, dilation)
	default:
		panic(fmt.Sprintf("convnd: unsupported dtype %s", input.DType()))
	}

	return output
}

func convND[T float32 | float64](
	outData, inData, kernelData []T,
	batch, cIn, cOut int,
	spatial, kSize, outSpatial tensor.Shape,
	stride, padding, dilation int,
) {
	rank := len(spatial)
	inStrides := spatial.ComputeStrides()
	kStrides := kSize.ComputeStrides()
	outStrides := outSpatial.ComputeStrides()

	inChanSize := spatial.NumElements()
	kChanSize := kSize.NumElements()
	outPositions := outSpatial.NumElements()

	colWidth := cIn * kChanSize
	colBuf := make([]T, outPositions*colWidth)

	outCoord := make([]int, rank)
	kCoord := make([]int, rank)

	for n := 0; n < batch; n++ {
		inBase := n * cIn * inChanSize

		// im2col: one row per output position, one column per kernel weight.
		for pos := 0; pos < outPositions; pos++ {
			rem := pos
			for i := 0; i < rank; i++ {
				outCoord[i] = rem / outStrides[i]
				rem %= outStrides[i]
			}

			bufIdx := pos * colWidth
			for c := 0; c < cIn; c++ {
				for kIdx := 0; kIdx < kChanSize; kIdx++ {
					rem = kIdx
					for i := 0; i < rank; i++ {
						kCoord[i] = rem / kStrides[i]
						rem %= kStrides[i]
					}

					srcIdx := inBase + c*inChanSize
					inBounds := true
					for i := 0; i < rank; i++ {
						p := outCoord[i]*stride - padding + kCoord[i]*dilation
						if p < 0 || p >= spatial[i] {
							inBounds = false
							break
						}
						srcIdx += p * inStrides[i]
					}

					if inBounds {
						colBuf[bufIdx] = inData[srcIdx]
					} else {
						colBuf[bufIdx] = 0
					}
					bufIdx++
				}
			}
		}

		// kernel [C_out, colWidth] @ colBuf^T [colWidth, positions].
		outBase := n * cOut * outPositions
		for co := 0; co < cOut; co++ {
			kRow := kernelData[co*colWidth : (co+1)*colWidth]
			for pos := 0; pos < outPositions; pos++ {
				col := colBuf[pos*colWidth : (pos+1)*colWidth]
				var sum T
				for k := range kRow {
					sum += kRow[k] * col[k]
				}
				outData[outBase+co*outPositions+pos] = sum
			}
		}
	}
}
