package envdetect

import (
	"fmt"
	"reflect"

	"github.com/sre-norns/envprobe/pkg/kinds"
	"github.com/sre-norns/wyrd/pkg/manifest"
)

const KindRules = kinds.Kind("EnvironmentRules")

func init() {
	// Ignore double registration error
	_ = kinds.RegisterKind(KindRules, &Rules{})
}

// RulesFromManifest extracts classification rules from a manifest of kind EnvironmentRules
func RulesFromManifest(m kinds.Manifest) (Rules, error) {
	if m.Kind != KindRules {
		return Rules{}, fmt.Errorf("%w: got %q, expected %q", manifest.ErrUnknownKind, m.Kind, KindRules)
	}

	rules, ok := m.Spec.(*Rules)
	if !ok || rules == nil {
		return Rules{}, fmt.Errorf("%w: got %q, expected %q", manifest.ErrUnexpectedSpecType, reflect.TypeOf(m.Spec), reflect.TypeOf(&Rules{}))
	}

	return rules.Clone(), nil
}

// LoadRules reads rules from a manifest file, falling back to DefaultRules when filename is empty
func LoadRules(filename string) (Rules, error) {
	if filename == "" {
		return DefaultRules(), nil
	}

	m, err := kinds.FromFile(filename)
	if err != nil {
		return Rules{}, err
	}

	rules, err := RulesFromManifest(m)
	if err != nil {
		return Rules{}, fmt.Errorf("rules file %q: %w", filename, err)
	}

	if err := rules.Validate(); err != nil {
		return Rules{}, fmt.Errorf("rules file %q: %w", filename, err)
	}

	return rules, nil
}

// ToManifest wraps rules for serialization
func (r Rules) ToManifest(name string) kinds.Manifest {
	rules := r.Clone()
	return kinds.Manifest{
		Kind: KindRules,
		Name: name,
		Spec: &rules,
	}
}
