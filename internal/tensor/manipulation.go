package tensor

import "fmt"

// Cat concatenates tensors along the specified dimension.
//
// All tensors must have the same shape except along the concatenation
// dimension. Supports negative dim indexing (-1 = last dimension).
//
// Example:
//
//	a := tensor.Randn[float32](Shape{2, 3}, backend)
//	b := tensor.Randn[float32](Shape{2, 5}, backend)
//	c := tensor.Cat([]*Tensor[float32, B]{a, b}, 1) // Shape: [2, 8]
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}
	if len(tensors) == 1 {
		return tensors[0].Clone()
	}

	rawTensors := make([]*RawTensor, len(tensors))
	backend := tensors[0].backend
	for i, t := range tensors {
		rawTensors[i] = t.raw
	}

	return New[T, B](backend.Cat(rawTensors, dim), backend)
}

// Unsqueeze adds a dimension of size 1 at the specified position.
// Supports negative dim indexing.
func (t *Tensor[T, B]) Unsqueeze(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Unsqueeze(t.raw, dim), t.backend)
}

// Squeeze removes a dimension of size 1 at the specified position.
// Panics if that dimension's size is not 1. Supports negative indexing.
func (t *Tensor[T, B]) Squeeze(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Squeeze(t.raw, dim), t.backend)
}

// Flatten collapses all dimensions from startDim onward into one.
//
// Example:
//
//	x := tensor.Randn[float32](Shape{8, 16, 4, 4}, backend)
//	y := x.Flatten(1) // Shape: [8, 256]
func (t *Tensor[T, B]) Flatten(startDim int) *Tensor[T, B] {
	shape := t.Shape()
	if startDim < 0 {
		startDim = len(shape) + startDim
	}
	if startDim < 0 || startDim >= len(shape) {
		panic(fmt.Sprintf("flatten: start dim %d out of range for %dD tensor", startDim, len(shape)))
	}

	flat := 1
	for _, dim := range shape[startDim:] {
		flat *= dim
	}
	newShape := append(shape[:startDim].Clone(), flat)
	return New[T, B](t.backend.Reshape(t.raw, newShape), t.backend)
}
