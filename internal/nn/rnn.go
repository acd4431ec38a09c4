package nn

import (
	"fmt"
	"math"

	"github.com/hydra-ml/hydra/internal/tensor"
)

// CellKind selects the recurrent cell family of an RNN stack.
type CellKind int

// Supported recurrent cell families.
const (
	CellRNN CellKind = iota // simple Elman cell with tanh
	CellGRU
	CellLSTM
)

// String returns a human-readable cell name.
func (k CellKind) String() string {
	switch k {
	case CellRNN:
		return "RNN"
	case CellGRU:
		return "GRU"
	case CellLSTM:
		return "LSTM"
	default:
		return "Unknown"
	}
}

// gates returns the number of gate blocks per cell.
func (k CellKind) gates() int {
	switch k {
	case CellRNN:
		return 1
	case CellGRU:
		return 3
	case CellLSTM:
		return 4
	default:
		panic("unknown cell kind")
	}
}

// RNNState carries the final hidden state of an RNN forward pass.
//
// H has shape [numLayers*numDirections, batch, hidden]; the layer index
// is major, the direction index minor. C is the LSTM cell state with the
// same shape, nil for non-LSTM stacks.
type RNNState[B tensor.Backend] struct {
	H *tensor.Tensor[float32, B]
	C *tensor.Tensor[float32, B]
}

// rnnLayerWeights holds one (layer, direction) slice of the stack.
//
// Gate blocks are stacked along the first weight dimension in the
// conventional order: GRU r,z,n — LSTM i,f,g,o.
type rnnLayerWeights[B tensor.Backend] struct {
	wih *Parameter[B] // [gates*hidden, in]
	whh *Parameter[B] // [gates*hidden, hidden]
	bih *Parameter[B] // [gates*hidden]
	bhh *Parameter[B] // [gates*hidden]
}

// RNN is a multi-layer, optionally bidirectional recurrent stack over
// batch-first sequences.
//
// Input shape:  [batch, seq_len, input_size]
// Output shape: [batch, seq_len, numDirections*hidden]
//
// For bidirectional stacks the backward direction processes the
// reversed sequence; at every time step the two directions' hidden
// states are concatenated along the feature axis.
type RNN[B tensor.Backend] struct {
	kind          CellKind
	inputSize     int
	hiddenSize    int
	numLayers     int
	numDirections int

	weights []rnnLayerWeights[B] // indexed layer*numDirections+dir
	backend B
}

// NewRNN creates a recurrent stack. Weights and biases are initialized
// from U(-1/sqrt(hidden), 1/sqrt(hidden)).
func NewRNN[B tensor.Backend](kind CellKind, inputSize, hiddenSize, numLayers int, bidirectional bool, backend B) *RNN[B] {
	if inputSize <= 0 || hiddenSize <= 0 || numLayers <= 0 {
		panic(fmt.Sprintf("rnn: invalid sizes input=%d hidden=%d layers=%d", inputSize, hiddenSize, numLayers))
	}

	numDirections := 1
	if bidirectional {
		numDirections = 2
	}
	gates := kind.gates()
	bound := 1.0 / math.Sqrt(float64(hiddenSize))

	weights := make([]rnnLayerWeights[B], 0, numLayers*numDirections)
	for layer := 0; layer < numLayers; layer++ {
		in := inputSize
		if layer > 0 {
			in = numDirections * hiddenSize
		}
		for dir := 0; dir < numDirections; dir++ {
			wih := tensor.Zeros[float32](tensor.Shape{gates * hiddenSize, in}, backend)
			whh := tensor.Zeros[float32](tensor.Shape{gates * hiddenSize, hiddenSize}, backend)
			bih := tensor.Zeros[float32](tensor.Shape{gates * hiddenSize}, backend)
			bhh := tensor.Zeros[float32](tensor.Shape{gates * hiddenSize}, backend)
			for _, raw := range []*tensor.RawTensor{wih.Raw(), whh.Raw(), bih.Raw(), bhh.Raw()} {
				Uniform(raw, -bound, bound)
			}

			prefix := fmt.Sprintf("l%d", layer)
			if dir == 1 {
				prefix += "_reverse"
			}
			weights = append(weights, rnnLayerWeights[B]{
				wih: NewParameter("weight_ih_"+prefix, wih),
				whh: NewParameter("weight_hh_"+prefix, whh),
				bih: NewParameter("bias_ih_"+prefix, bih),
				bhh: NewParameter("bias_hh_"+prefix, bhh),
			})
		}
	}

	return &RNN[B]{
		kind:          kind,
		inputSize:     inputSize,
		hiddenSize:    hiddenSize,
		numLayers:     numLayers,
		numDirections: numDirections,
		weights:       weights,
		backend:       backend,
	}
}

// Kind returns the cell family.
func (r *RNN[B]) Kind() CellKind { return r.kind }

// HiddenSize returns the per-direction hidden width.
func (r *RNN[B]) HiddenSize() int { return r.hiddenSize }

// NumLayers returns the stack depth.
func (r *RNN[B]) NumLayers() int { return r.numLayers }

// NumDirections returns 2 for bidirectional stacks, else 1.
func (r *RNN[B]) NumDirections() int { return r.numDirections }

// Forward runs the stack over a batch-first sequence and returns the
// full output sequence plus the final state.
func (r *RNN[B]) Forward(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], *RNNState[B]) {
	shape := input.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("RNN.Forward: expected 3D input [batch, seq, features], got shape %v", shape))
	}
	if shape[2] != r.inputSize {
		panic(fmt.Sprintf("RNN.Forward: expected input with %d features, got %d", r.inputSize, shape[2]))
	}

	batch, seqLen := shape[0], shape[1]
	finalH := make([]*tensor.Tensor[float32, B], r.numLayers*r.numDirections)
	finalC := make([]*tensor.Tensor[float32, B], r.numLayers*r.numDirections)

	layerInput := input
	for layer := 0; layer < r.numLayers; layer++ {
		dirOut := make([][]*tensor.Tensor[float32, B], r.numDirections)

		for dir := 0; dir < r.numDirections; dir++ {
			w := &r.weights[layer*r.numDirections+dir]
			h := tensor.Zeros[float32](tensor.Shape{batch, r.hiddenSize}, r.backend)
			c := tensor.Zeros[float32](tensor.Shape{batch, r.hiddenSize}, r.backend)
			out := make([]*tensor.Tensor[float32, B], seqLen)

			for step := 0; step < seqLen; step++ {
				t := step
				if dir == 1 {
					t = seqLen - 1 - step
				}
				xt := timeSlice(layerInput, t)
				h, c = r.cellStep(w, xt, h, c)
				out[t] = h
			}

			dirOut[dir] = out
			finalH[layer*r.numDirections+dir] = h
			finalC[layer*r.numDirections+dir] = c
		}

		// Concatenate directions per time step, then stack over time.
		steps := make([]*tensor.Tensor[float32, B], seqLen)
		for t := 0; t < seqLen; t++ {
			if r.numDirections == 1 {
				steps[t] = dirOut[0][t]
			} else {
				steps[t] = tensor.Cat([]*tensor.Tensor[float32, B]{dirOut[0][t], dirOut[1][t]}, 1)
			}
		}
		layerInput = stackTime(steps)
	}

	state := &RNNState[B]{H: stackStates(finalH)}
	if r.kind == CellLSTM {
		state.C = stackStates(finalC)
	}

	return layerInput, state
}

// Parameters returns every weight and bias of the stack.
func (r *RNN[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, len(r.weights)*4)
	for i := range r.weights {
		w := &r.weights[i]
		params = append(params, w.wih, w.whh, w.bih, w.bhh)
	}
	return params
}

// WeightParameters returns only the weight matrices, for
// initialization policies that treat weights and biases differently.
func (r *RNN[B]) WeightParameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, len(r.weights)*2)
	for i := range r.weights {
		w := &r.weights[i]
		params = append(params, w.wih, w.whh)
	}
	return params
}

// BiasParameters returns only the bias vectors.
func (r *RNN[B]) BiasParameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, len(r.weights)*2)
	for i := range r.weights {
		w := &r.weights[i]
		params = append(params, w.bih, w.bhh)
	}
	return params
}

// String returns a string representation of the stack.
func (r *RNN[B]) String() string {
	return fmt.Sprintf("%s(input_size=%d, hidden_size=%d, num_layers=%d, bidirectional=%v)",
		r.kind, r.inputSize, r.hiddenSize, r.numLayers, r.numDirections == 2)
}

// cellStep advances one time step, returning the new hidden and cell
// state ([batch, hidden] each; the cell state is only meaningful for
// LSTM and is threaded through untouched otherwise).
func (r *RNN[B]) cellStep(w *rnnLayerWeights[B], xt, h, c *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	gates := r.kind.gates()
	width := gates * r.hiddenSize

	gi := xt.MatMul(w.wih.Tensor().T()).Add(w.bih.Tensor().Reshape(1, width))
	gh := h.MatMul(w.whh.Tensor().T()).Add(w.bhh.Tensor().Reshape(1, width))

	switch r.kind {
	case CellRNN:
		return r.tanh(gi.Add(gh)), c

	case CellGRU:
		reset := r.sigmoid(cols(gi, 0, r.hiddenSize).Add(cols(gh, 0, r.hiddenSize)))
		update := r.sigmoid(cols(gi, r.hiddenSize, r.hiddenSize).Add(cols(gh, r.hiddenSize, r.hiddenSize)))
		cand := r.tanh(cols(gi, 2*r.hiddenSize, r.hiddenSize).Add(reset.Mul(cols(gh, 2*r.hiddenSize, r.hiddenSize))))

		ones := tensor.Ones[float32](update.Shape(), r.backend)
		newH := ones.Sub(update).Mul(cand).Add(update.Mul(h))
		return newH, c

	case CellLSTM:
		in := r.sigmoid(cols(gi, 0, r.hiddenSize).Add(cols(gh, 0, r.hiddenSize)))
		forget := r.sigmoid(cols(gi, r.hiddenSize, r.hiddenSize).Add(cols(gh, r.hiddenSize, r.hiddenSize)))
		cand := r.tanh(cols(gi, 2*r.hiddenSize, r.hiddenSize).Add(cols(gh, 2*r.hiddenSize, r.hiddenSize)))
		out := r.sigmoid(cols(gi, 3*r.hiddenSize, r.hiddenSize).Add(cols(gh, 3*r.hiddenSize, r.hiddenSize)))

		newC := forget.Mul(c).Add(in.Mul(cand))
		newH := out.Mul(r.tanh(newC))
		return newH, newC

	default:
		panic("unknown cell kind")
	}
}

func (r *RNN[B]) sigmoid(t *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if ab, ok := any(r.backend).(SigmoidBackend); ok {
		return tensor.New[float32, B](ab.Sigmoid(t.Raw()), r.backend)
	}
	panic("RNN: backend must implement the Sigmoid operation")
}

func (r *RNN[B]) tanh(t *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if ab, ok := any(r.backend).(TanhBackend); ok {
		return tensor.New[float32, B](ab.Tanh(t.Raw()), r.backend)
	}
	panic("RNN: backend must implement the Tanh operation")
}

// timeSlice extracts step t of a contiguous [batch, seq, features]
// tensor as [batch, features].
func timeSlice[B tensor.Backend](x *tensor.Tensor[float32, B], t int) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	batch, seqLen, features := shape[0], shape[1], shape[2]

	out := tensor.Zeros[float32](tensor.Shape{batch, features}, x.Backend())
	src := x.Data()
	dst := out.Data()
	for n := 0; n < batch; n++ {
		copy(dst[n*features:(n+1)*features], src[n*seqLen*features+t*features:n*seqLen*features+(t+1)*features])
	}
	return out
}

// stackTime stacks per-step [batch, features] tensors into a
// [batch, len(steps), features] sequence.
func stackTime[B tensor.Backend](steps []*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	batch := steps[0].Shape()[0]
	features := steps[0].Shape()[1]
	seqLen := len(steps)

	out := tensor.Zeros[float32](tensor.Shape{batch, seqLen, features}, steps[0].Backend())
	dst := out.Data()
	for t, step := range steps {
		src := step.Data()
		for n := 0; n < batch; n++ {
			copy(dst[n*seqLen*features+t*features:n*seqLen*features+(t+1)*features], src[n*features:(n+1)*features])
		}
	}
	return out
}

// stackStates stacks per-(layer,direction) [batch, hidden] states into
// [len(states), batch, hidden].
func stackStates[B tensor.Backend](states []*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	batch := states[0].Shape()[0]
	hidden := states[0].Shape()[1]

	out := tensor.Zeros[float32](tensor.Shape{len(states), batch, hidden}, states[0].Backend())
	dst := out.Data()
	size := batch * hidden
	for i, st := range states {
		copy(dst[i*size:(i+1)*size], st.Data())
	}
	return out
}

// cols returns columns [start, start+width) of a 2D tensor.
func cols[B tensor.Backend](x *tensor.Tensor[float32, B], start, width int) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	rows, total := shape[0], shape[1]
	if start < 0 || start+width > total {
		panic(fmt.Sprintf("cols: range [%d, %d) out of bounds for width %d", start, start+width, total))
	}

	out := tensor.Zeros[float32](tensor.Shape{rows, width}, x.Backend())
	src := x.Data()
	dst := out.Data()
	for n := 0; n < rows; n++ {
		copy(dst[n*width:(n+1)*width], src[n*total+start:n*total+start+width])
	}
	return out
}
