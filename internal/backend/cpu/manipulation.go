package cpu

import (
	"fmt"

	"github.com/hydra-ml/hydra/internal/tensor"
)

// Cat concatenates tensors along the specified dimension.
//
// All tensors must have the same shape except along the concatenation
// dimension. Supports negative dim indexing (-1 = last dimension).
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}

	shape := tensors[0].Shape()
	ndim := len(shape)
	dtype := tensors[0].DType()

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("cat: dimension %d out of range for %dD tensor", dim, ndim))
	}

	totalDim := 0
	for i, t := range tensors {
		tShape := t.Shape()
		if len(tShape) != ndim {
			panic(fmt.Sprintf("cat: tensor %d has %d dimensions, expected %d", i, len(tShape), ndim))
		}
		if t.DType() != dtype {
			panic(fmt.Sprintf("cat: tensor %d has dtype %s, expected %s", i, t.DType(), dtype))
		}
		for d := 0; d < ndim; d++ {
			if d == dim {
				totalDim += tShape[d]
			} else if tShape[d] != shape[d] {
				panic(fmt.Sprintf("cat: tensor %d dimension %d is %d, expected %d", i, d, tShape[d], shape[d]))
			}
		}
	}

	outShape := shape.Clone()
	outShape[dim] = totalDim

	result, err := tensor.NewRaw(outShape, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("cat: %v", err))
	}

	switch dtype {
	case tensor.Float32:
		catData(result.AsFloat32(), tensors, dim, func(t *tensor.RawTensor) []float32 { return t.AsFloat32() })
	case tensor.Float64:
		catData(result.AsFloat64(), tensors, dim, func(t *tensor.RawTensor) []float64 { return t.AsFloat64() })
	default:
		panic(fmt.Sprintf("cat: unsupported dtype %s", dtype))
	}

	return result
}

// catData copies the inputs into dst. Treating each tensor as
// [outer, dimSize*inner] lets the copy run in contiguous chunks.
func catData[T float32 | float64](dst []T, tensors []*tensor.RawTensor, dim int, view func(*tensor.RawTensor) []T) {
	shape := tensors[0].Shape()

	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	inner := 1
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}

	totalChunk := 0
	for _, t := range tensors {
		totalChunk += t.Shape()[dim] * inner
	}

	offset := 0
	for _, t := range tensors {
		src := view(t)
		chunk := t.Shape()[dim] * inner
		for o := 0; o < outer; o++ {
			copy(dst[o*totalChunk+offset:o*totalChunk+offset+chunk], src[o*chunk:(o+1)*chunk])
		}
		offset += chunk
	}
}
