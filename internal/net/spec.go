// Package net compiles declarative network specifications into
// executable modules.
//
// A Spec describes one buildable unit: a feed-forward, convolutional
// or recurrent stack, or a composite Hydra of named heads joined into
// a shared body that fans out into named tails. Builders resolve the
// spec bottom-up, inferring every intermediate shape either
// algebraically or by probing with a dummy tensor, and return the
// built module together with its output shape. Inferred shapes are
// also stamped back onto the spec tree so callers can introspect the
// result without re-deriving it.
package net

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/hydra-ml/hydra/internal/tensor"
)

// Spec is a declarative description of one buildable network unit.
//
// Which fields apply depends on Type: mlp, conv1d, conv2d, conv3d,
// rnn, gru, lstm, or hydra. Shapes exclude the batch dimension.
type Spec struct {
	Type string `yaml:"type"`

	InShape  tensor.Shape `yaml:"in_shape,omitempty"`
	OutShape tensor.Shape `yaml:"out_shape,omitempty"`

	// Layers lists hidden units: plain widths for mlp and recurrent
	// nets, convolution hyperparameter tuples for conv nets.
	Layers []LayerDef `yaml:"layers,omitempty"`

	Activation string `yaml:"activation,omitempty"`

	// OutActivation overrides Activation for the final layer when its
	// key is present, even with a null value.
	OutActivation OptName `yaml:"out_activation,omitempty"`

	InitFn    string `yaml:"init_fn,omitempty"`
	BatchNorm bool   `yaml:"batch_norm,omitempty"`

	// FlattenOut applies to conv nets only; it must be set whenever
	// OutShape is, since the terminal projection needs a flat vector.
	FlattenOut bool `yaml:"flatten_out,omitempty"`

	// Bidirectional applies to recurrent nets only.
	Bidirectional bool `yaml:"bidirectional,omitempty"`

	// Composite (hydra) fields.
	Heads map[string]*Spec `yaml:"heads,omitempty"`
	Body  *BodySpec        `yaml:"body,omitempty"`
	Tails map[string]*Spec `yaml:"tails,omitempty"`

	// OutShapeInferred is stamped by the builder after a successful
	// build, recording the module's output shape.
	OutShapeInferred tensor.Shape `yaml:"_out_shape,omitempty"`
}

// specFields mirrors Spec for decoding without recursing back into
// Spec.UnmarshalYAML.
type specFields Spec

// UnmarshalYAML decodes the mapping and then re-scans its keys for
// out_activation: null values never reach OptName's unmarshaler, so
// presence of the key has to be detected on the raw node.
func (s *Spec) UnmarshalYAML(value *yaml.Node) error {
	var fields specFields
	if err := value.Decode(&fields); err != nil {
		return err
	}
	*s = Spec(fields)

	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value != "out_activation" {
			continue
		}
		v := value.Content[i+1]
		if v.Tag == "!!null" {
			s.OutActivation = Null()
		} else {
			s.OutActivation = Name(v.Value)
		}
	}
	return nil
}

// BodySpec is the body of a Hydra: an ordinary Spec extended with the
// joiner that merges the head outputs into the body's input.
type BodySpec struct {
	Spec   `yaml:",inline"`
	Joiner *JoinerSpec `yaml:"joiner"`
}

// UnmarshalYAML decodes the embedded Spec through its own unmarshaler
// (inline embedding would bypass it) and picks the joiner key off the
// same mapping.
func (b *BodySpec) UnmarshalYAML(value *yaml.Node) error {
	if err := b.Spec.UnmarshalYAML(value); err != nil {
		return err
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value == "joiner" {
			if err := value.Content[i+1].Decode(&b.Joiner); err != nil {
				return err
			}
		}
	}
	return nil
}

// JoinerSpec selects and parameterizes the strategy merging named head
// outputs into one tensor.
type JoinerSpec struct {
	Type string `yaml:"type"` // concat or film

	// FiLM only: Feat and Cond name the feature and conditioner heads,
	// and Film is the feed-forward spec of the scale/shift transforms
	// (its in_shape and out_shape are injected at build time).
	Feat string `yaml:"feat,omitempty"`
	Cond string `yaml:"cond,omitempty"`
	Film *Spec  `yaml:"film,omitempty"`

	OutShapeInferred tensor.Shape `yaml:"_out_shape,omitempty"`
}

// LayerDef is one entry of a Spec's layer list: either a plain width
// or a convolution hyperparameter tuple
// [out_channels, kernel_size, stride, padding, dilation], where the
// trailing three default to 1, 0 and 1 when omitted.
type LayerDef struct {
	Width int
	Conv  []int // nil for plain-width entries
}

// W wraps a plain width as a LayerDef.
func W(width int) LayerDef {
	return LayerDef{Width: width}
}

// C wraps convolution hyperparameters as a LayerDef.
func C(params ...int) LayerDef {
	return LayerDef{Conv: params}
}

// IsConv reports whether the entry is a convolution tuple.
func (l LayerDef) IsConv() bool {
	return l.Conv != nil
}

// convParams expands a convolution tuple, applying defaults for the
// optional trailing hyperparameters.
func (l LayerDef) convParams() (outChannels, kernel, stride, padding, dilation int, err error) {
	if len(l.Conv) < 2 || len(l.Conv) > 5 {
		return 0, 0, 0, 0, 0, fmt.Errorf("net: conv layer needs 2 to 5 hyperparameters [out_channels, kernel, stride, padding, dilation], got %v", l.Conv)
	}
	outChannels, kernel = l.Conv[0], l.Conv[1]
	stride, padding, dilation = 1, 0, 1
	if len(l.Conv) > 2 {
		stride = l.Conv[2]
	}
	if len(l.Conv) > 3 {
		padding = l.Conv[3]
	}
	if len(l.Conv) > 4 {
		dilation = l.Conv[4]
	}
	return outChannels, kernel, stride, padding, dilation, nil
}

// UnmarshalYAML accepts either a scalar width or a hyperparameter
// sequence.
func (l *LayerDef) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		l.Conv = nil
		return value.Decode(&l.Width)
	case yaml.SequenceNode:
		l.Width = 0
		return value.Decode(&l.Conv)
	default:
		return fmt.Errorf("net: layer entry must be an integer or a sequence, got %v", value.Kind)
	}
}

// MarshalYAML emits the same two forms UnmarshalYAML accepts.
func (l LayerDef) MarshalYAML() (interface{}, error) {
	if l.IsConv() {
		return l.Conv, nil
	}
	return l.Width, nil
}

// OptName is a name field with three states: absent, explicitly null,
// or set to a name. Absent means "inherit", explicit null means
// "explicitly none". The distinction drives the out_activation
// override on final layers.
type OptName struct {
	present bool
	name    string
}

// Name returns an OptName explicitly set to the given name.
func Name(name string) OptName {
	return OptName{present: true, name: name}
}

// Null returns an OptName that is present but explicitly null.
func Null() OptName {
	return OptName{present: true}
}

// Present reports whether the key appeared at all.
func (o OptName) Present() bool { return o.present }

// Value returns the name, empty for null or absent.
func (o OptName) Value() string { return o.name }

// UnmarshalYAML records presence and clears the name on a null tag.
// The YAML decoder skips custom unmarshalers for null nodes entirely,
// so Spec.UnmarshalYAML additionally scans its mapping keys to catch
// the explicit-null case.
func (o *OptName) UnmarshalYAML(value *yaml.Node) error {
	o.present = true
	if value.Tag == "!!null" {
		o.name = ""
		return nil
	}
	return value.Decode(&o.name)
}

// MarshalYAML round-trips the set and null states. Absent keys are
// elided by the omitempty tag on the enclosing field.
func (o OptName) MarshalYAML() (interface{}, error) {
	if !o.present || o.name == "" {
		return nil, nil
	}
	return o.name, nil
}

// IsZero lets omitempty elide absent OptName fields.
func (o OptName) IsZero() bool { return !o.present }

// ParseSpec decodes a YAML document into a Spec.
func ParseSpec(data []byte) (*Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("net: parsing spec: %w", err)
	}
	return &spec, nil
}
