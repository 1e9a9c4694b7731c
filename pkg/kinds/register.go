package kinds

import (
	"fmt"
	"reflect"

	"github.com/sre-norns/wyrd/pkg/manifest"
)

type Kind = manifest.Kind

var kindRegistry = map[Kind]reflect.Type{}

// RegisterKind associates a manifest kind with the Go type its spec decodes into
func RegisterKind(kind Kind, proto any) error {
	val := reflect.ValueOf(proto)
	if !val.IsValid() || !val.CanInterface() {
		return fmt.Errorf("type of %q can not interface", kind)
	}

	t := val.Type()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	kindRegistry[kind] = t
	return nil
}

func UnregisterKind(kind Kind) {
	delete(kindRegistry, kind)
}

// InstanceOf returns a manifest with a freshly allocated spec of the registered type
func InstanceOf(kind Kind) (Manifest, error) {
	t, known := kindRegistry[kind]
	if !known {
		return Manifest{}, fmt.Errorf("%w: %q", manifest.ErrUnknownKind, kind)
	}

	return Manifest{
		Kind: kind,
		Spec: reflect.New(t).Interface(),
	}, nil
}

// ListKinds returns the registered kinds.
// Note: function makes a copy of the registry to avoid accidental modification
func ListKinds() []Kind {
	result := make([]Kind, 0, len(kindRegistry))
	for kind := range kindRegistry {
		result = append(result, kind)
	}

	return result
}
