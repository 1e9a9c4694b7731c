package kinds

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sre-norns/wyrd/pkg/manifest"
	"gopkg.in/yaml.v3"
)

var ErrUnsupportedFormat = fmt.Errorf("unsupported manifest file format")

// Manifest is a typed configuration document: `kind` selects the Go type of `spec`
type Manifest struct {
	Kind   Kind            `json:"kind,omitempty" yaml:"kind,omitempty"`
	Name   string          `json:"name,omitempty" yaml:"name,omitempty"`
	Labels manifest.Labels `json:"labels,omitempty" yaml:"labels,omitempty"`

	Spec any `json:"-" yaml:"-"`
}

func (u Manifest) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind   Kind            `json:"kind,omitempty"`
		Name   string          `json:"name,omitempty"`
		Labels manifest.Labels `json:"labels,omitempty"`
		Spec   any             `json:"spec,omitempty"`
	}{
		Kind:   u.Kind,
		Name:   u.Name,
		Labels: u.Labels,
		Spec:   u.Spec,
	})
}

func (s *Manifest) UnmarshalJSON(data []byte) error {
	aux := &struct {
		Kind   Kind            `json:"kind,omitempty"`
		Name   string          `json:"name,omitempty"`
		Labels manifest.Labels `json:"labels,omitempty"`
		Spec   json.RawMessage `json:"spec,omitempty"`
	}{}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	s.Kind = aux.Kind
	s.Name = aux.Name
	s.Labels = aux.Labels
	s.Spec = nil

	if len(aux.Spec) == 0 {
		return nil
	}

	m, err := InstanceOf(aux.Kind)
	if err != nil {
		var spec map[string]any
		if err := json.Unmarshal(aux.Spec, &spec); err != nil {
			return err
		}
		s.Spec = spec
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(aux.Spec))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(m.Spec); err != nil {
		return fmt.Errorf("failed to decode spec of kind %q: %w", aux.Kind, err)
	}

	s.Spec = m.Spec
	return nil
}

func (u Manifest) MarshalYAML() (interface{}, error) {
	return struct {
		Kind   Kind            `yaml:"kind"`
		Name   string          `yaml:"name,omitempty"`
		Labels manifest.Labels `yaml:"labels,omitempty"`
		Spec   interface{}     `yaml:"spec,omitempty"`
	}{
		Kind:   u.Kind,
		Name:   u.Name,
		Labels: u.Labels,
		Spec:   u.Spec,
	}, nil
}

func (s *Manifest) UnmarshalYAML(n *yaml.Node) error {
	type S Manifest
	type T struct {
		*S   `yaml:",inline"`
		Spec yaml.Node `yaml:"spec"`
	}

	obj := &T{S: (*S)(s)}
	if err := n.Decode(obj); err != nil {
		return err
	}

	if obj.Spec.Kind == 0 {
		s.Spec = nil
		return nil
	}

	m, err := InstanceOf(s.Kind)
	if err != nil {
		spec := make(map[string]any)
		if err := obj.Spec.Decode(&spec); err != nil {
			return err
		}
		s.Spec = spec
		return nil
	}

	if err := decodeStrict(&obj.Spec, m.Spec); err != nil {
		return fmt.Errorf("failed to decode spec of kind %q: %w", s.Kind, err)
	}

	s.Spec = m.Spec
	return nil
}

// decodeStrict re-encodes a node so that yaml.Decoder.KnownFields can reject typos
func decodeStrict(node *yaml.Node, out any) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	return decoder.Decode(out)
}

func readContent(filename string) ([]byte, string, error) {
	if filename == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return content, ".yaml", fmt.Errorf("failed to read content from STDIN: %w", err)
		}

		return content, ".yaml", nil
	}

	content, err := os.ReadFile(filename)
	return content, filepath.Ext(filename), err
}

// Decode parses manifest content given the file extension that determines its format
func Decode(content []byte, ext string) (result Manifest, err error) {
	switch ext {
	case ".json":
		err = json.Unmarshal(content, &result)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &result)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	return result, err
}

// FromFile reads a manifest from a file, or from STDIN when filename is "-"
func FromFile(filename string) (Manifest, error) {
	content, ext, err := readContent(filename)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest content from `%v`: %w", filename, err)
	}

	result, err := Decode(content, ext)
	if err != nil {
		return result, fmt.Errorf("failed to parse manifest `%v`: %w", filename, err)
	}

	return result, nil
}
