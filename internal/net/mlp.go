package net

import (
	"fmt"

	"github.com/hydra-ml/hydra/internal/nn"
	"github.com/hydra-ml/hydra/internal/tensor"
)

// BuildMLP compiles a feed-forward spec into a Sequential of linear
// layers with optional batch normalization and per-position
// activations.
//
// The effective layer list is spec.Layers with spec.OutShape appended
// as one more width when present. An empty effective list builds an
// identity module. Batch normalization is inserted after every linear
// layer except the last. The output shape is the last effective width,
// or the input shape for the identity case.
func BuildMLP[B tensor.Backend](spec *Spec, backend B) (*Result[B], error) {
	if len(spec.InShape) != 1 {
		return nil, &ShapeMismatchError{Reason: fmt.Sprintf("mlp expects a flat in_shape, got %v", spec.InShape)}
	}

	widths := make([]int, 0, len(spec.Layers)+1)
	for _, l := range spec.Layers {
		if l.IsConv() {
			return nil, &ShapeMismatchError{Reason: fmt.Sprintf("mlp layers must be plain widths, got %v", l.Conv)}
		}
		widths = append(widths, l.Width)
	}
	if spec.OutShape != nil {
		if len(spec.OutShape) != 1 {
			return nil, &ShapeMismatchError{Reason: fmt.Sprintf("mlp out_shape must be flat, got %v", spec.OutShape)}
		}
		widths = append(widths, spec.OutShape[0])
	}

	if len(widths) == 0 {
		outShape := spec.InShape.Clone()
		spec.OutShapeInferred = outShape
		return &Result[B]{Module: nn.NewIdentity[B](), OutShape: outShape}, nil
	}

	model := nn.NewSequential[B]()
	inSize := spec.InShape[0]
	for idx, w := range widths {
		isLast := idx == len(widths)-1
		model.Add(nn.NewLinear(inSize, w, backend))
		if spec.BatchNorm && !isLast {
			model.Add(nn.NewBatchNorm(w, backend))
		}
		act, err := activationForLayer[B](spec, isLast)
		if err != nil {
			return nil, err
		}
		if act != nil {
			model.Add(act)
		}
		inSize = w
	}

	if spec.InitFn != "" {
		if err := initializeWeights[B](model, spec.InitFn, spec.Activation); err != nil {
			return nil, err
		}
	}

	outShape := tensor.Shape{widths[len(widths)-1]}
	spec.OutShapeInferred = outShape
	return &Result[B]{Module: model, OutShape: outShape}, nil
}
