package net

import (
	"fmt"

	"github.com/hydra-ml/hydra/internal/nn"
	"github.com/hydra-ml/hydra/internal/tensor"
)

// convRank maps a conv type discriminator to its spatial rank.
func convRank(netType string) (int, bool) {
	switch netType {
	case "conv1d":
		return 1, true
	case "conv2d":
		return 2, true
	case "conv3d":
		return 3, true
	default:
		return 0, false
	}
}

// BuildConv compiles a convolutional spec of rank 1, 2 or 3 into a
// Sequential of convolution stages.
//
// in_shape is [channels, spatial...]. Each layer entry is a
// hyperparameter tuple; when spec.OutShape is present it is appended
// to the effective list as a bare terminal width, which requires
// FlattenOut and emits a flatten plus a linear projection whose input
// width is inferred by probing the stages built so far. The final
// output shape is always determined by probing the assembled module
// with a dummy tensor rather than by closed-form arithmetic.
func BuildConv[B tensor.Backend](spec *Spec, backend B) (*Result[B], error) {
	rank, ok := convRank(spec.Type)
	if !ok {
		return nil, &UnsupportedTypeError{Type: spec.Type}
	}
	if len(spec.InShape) != rank+1 {
		return nil, &ShapeMismatchError{Reason: fmt.Sprintf(
			"%s expects in_shape [channels, %d spatial dims], got %v", spec.Type, rank, spec.InShape)}
	}

	effective := make([]LayerDef, len(spec.Layers))
	copy(effective, spec.Layers)
	if spec.OutShape != nil {
		if len(spec.OutShape) != 1 {
			return nil, &ShapeMismatchError{Reason: fmt.Sprintf("conv out_shape must be flat, got %v", spec.OutShape)}
		}
		effective = append(effective, W(spec.OutShape[0]))
	}

	model := nn.NewSequential[B]()
	inChannels := spec.InShape[0]
	for idx, layer := range effective {
		isLast := idx == len(effective)-1

		if layer.IsConv() {
			outChannels, kernel, stride, padding, dilation, err := layer.convParams()
			if err != nil {
				return nil, err
			}
			model.Add(nn.NewConvND(rank, inChannels, outChannels, kernel, stride, padding, dilation, backend))
			if spec.BatchNorm {
				model.Add(nn.NewBatchNorm(outChannels, backend))
			}
			act, err := activationForLayer[B](spec, isLast)
			if err != nil {
				return nil, err
			}
			if act != nil {
				model.Add(act)
			}
			inChannels = outChannels
			if isLast && spec.OutShape == nil && spec.FlattenOut {
				model.Add(nn.NewFlatten[B]())
			}
			continue
		}

		// Terminal bare width, reachable only via the appended OutShape.
		if !isLast {
			return nil, &ShapeMismatchError{Reason: "conv layers must be hyperparameter tuples"}
		}
		if !spec.FlattenOut {
			return nil, &ShapeMismatchError{Reason: "conv out_shape requires flatten_out"}
		}
		model.Add(nn.NewFlatten[B]())
		flatShape := probeShape(model.Modules(), spec.InShape, backend)
		if len(flatShape) != 1 {
			return nil, &ShapeMismatchError{Reason: fmt.Sprintf("flattened conv output is not a vector: %v", flatShape)}
		}
		model.Add(nn.NewLinear(flatShape[0], layer.Width, backend))
		act, err := activationForLayer[B](spec, true)
		if err != nil {
			return nil, err
		}
		if act != nil {
			model.Add(act)
		}
	}

	if spec.InitFn != "" {
		if err := initializeWeights[B](model, spec.InitFn, spec.Activation); err != nil {
			return nil, err
		}
	}

	outShape := probeShape(model.Modules(), spec.InShape, backend)
	spec.OutShapeInferred = outShape
	return &Result[B]{Module: model, OutShape: outShape}, nil
}

// probeShape infers the output shape of a module chain by running a
// random dummy tensor with a singleton batch dimension through it and
// stripping the batch dimension off the result. It is a pure function
// of the layers and the input shape; weights affect values, never
// shapes.
func probeShape[B tensor.Backend](modules []nn.Module[B], inShape tensor.Shape, backend B) tensor.Shape {
	probeDims := append(tensor.Shape{1}, inShape...)
	x := tensor.Rand[float32](probeDims, backend)
	for _, m := range modules {
		x = m.Forward(x)
	}
	return x.Shape()[1:].Clone()
}
