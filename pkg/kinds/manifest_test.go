package kinds_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sre-norns/envprobe/pkg/kinds"
	"github.com/sre-norns/wyrd/pkg/manifest"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type testSpec struct {
	Value int    `json:"value" yaml:"value"`
	Name  string `json:"name" yaml:"name"`
}

const testKind = kinds.Kind("testSpec")

func TestCustomMarshaling_JSON(t *testing.T) {
	testCases := map[string]struct {
		given  kinds.Manifest
		expect string
	}{
		"nothing": {
			given:  kinds.Manifest{},
			expect: `{}`,
		},
		"min-spec": {
			given: kinds.Manifest{
				Spec: &testSpec{
					Value: 1,
					Name:  "life",
				},
			},
			expect: `{"spec":{"value":1,"name":"life"}}`,
		},
		"basic": {
			given: kinds.Manifest{
				Kind: testKind,
				Name: "answer",
				Spec: &testSpec{
					Value: 42,
					Name:  "meaning",
				},
			},
			expect: `{"kind":"testSpec","name":"answer","spec":{"value":42,"name":"meaning"}}`,
		},
	}

	for name, tc := range testCases {
		test := tc
		t.Run(name, func(t *testing.T) {
			got, err := json.Marshal(test.given)
			require.NoError(t, err)
			require.Equal(t, test.expect, string(got))
		})
	}
}

func TestCustomUnmarshaling_JSON(t *testing.T) {
	require.NoError(t, kinds.RegisterKind(testKind, &testSpec{}))
	defer kinds.UnregisterKind(testKind)

	testCases := map[string]struct {
		given       string
		expect      kinds.Manifest
		expectError bool
	}{
		"nothing-object": {
			given:  `{}`,
			expect: kinds.Manifest{},
		},
		"unknown-kind": {
			given: `{"kind":"unknownSpec","spec":{"field":"xyz","desc":"unknown"}}`,
			expect: kinds.Manifest{
				Kind: manifest.Kind("unknownSpec"),
				Spec: map[string]any{"field": "xyz", "desc": "unknown"},
			},
		},
		"basic": {
			given: `{"kind":"testSpec","labels":{"team":"sre"},"spec":{"value":42,"name":"meaning"}}`,
			expect: kinds.Manifest{
				Kind:   testKind,
				Labels: manifest.Labels{"team": "sre"},
				Spec: &testSpec{
					Value: 42,
					Name:  "meaning",
				},
			},
		},
		"invalid-spec": {
			expectError: true,
			given:       `{"kind":"testSpec","spec":{"script":"meaning"}}`,
		},
	}

	for name, tc := range testCases {
		test := tc
		t.Run(name, func(t *testing.T) {
			var got kinds.Manifest
			err := json.Unmarshal([]byte(test.given), &got)
			if test.expectError {
				require.Error(t, err, "expected error")
			} else {
				require.NoError(t, err)
				require.Equal(t, test.expect, got)
			}
		})
	}
}

func TestCustomUnmarshaling_YAML(t *testing.T) {
	require.NoError(t, kinds.RegisterKind(testKind, &testSpec{}))
	defer kinds.UnregisterKind(testKind)

	testCases := map[string]struct {
		given       string
		expect      kinds.Manifest
		expectError bool
	}{
		"no-spec": {
			given:  "kind: testSpec\n",
			expect: kinds.Manifest{Kind: testKind},
		},
		"unknown-kind": {
			given: "kind: unknownSpec\nspec:\n  field: xyz\n",
			expect: kinds.Manifest{
				Kind: manifest.Kind("unknownSpec"),
				Spec: map[string]any{"field": "xyz"},
			},
		},
		"basic": {
			given: "kind: testSpec\nname: answer\nspec:\n  value: 42\n  name: meaning\n",
			expect: kinds.Manifest{
				Kind: testKind,
				Name: "answer",
				Spec: &testSpec{
					Value: 42,
					Name:  "meaning",
				},
			},
		},
		"invalid-spec": {
			expectError: true,
			given:       "kind: testSpec\nspec:\n  script: meaning\n",
		},
	}

	for name, tc := range testCases {
		test := tc
		t.Run(name, func(t *testing.T) {
			var got kinds.Manifest
			err := yaml.Unmarshal([]byte(test.given), &got)
			if test.expectError {
				require.Error(t, err, "expected error")
			} else {
				require.NoError(t, err)
				require.Equal(t, test.expect, got)
			}
		})
	}
}

func TestFromFile(t *testing.T) {
	require.NoError(t, kinds.RegisterKind(testKind, &testSpec{}))
	defer kinds.UnregisterKind(testKind)

	dir := t.TempDir()
	yamlFile := filepath.Join(dir, "spec.yaml")
	require.NoError(t, os.WriteFile(yamlFile, []byte("kind: testSpec\nspec:\n  value: 7\n"), 0644))

	got, err := kinds.FromFile(yamlFile)
	require.NoError(t, err)
	require.Equal(t, &testSpec{Value: 7}, got.Spec)

	txtFile := filepath.Join(dir, "spec.txt")
	require.NoError(t, os.WriteFile(txtFile, []byte("whatever"), 0644))

	_, err = kinds.FromFile(txtFile)
	require.ErrorIs(t, err, kinds.ErrUnsupportedFormat)

	_, err = kinds.FromFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestInstanceOf_UnknownKind(t *testing.T) {
	_, err := kinds.InstanceOf(kinds.Kind("nope"))
	require.ErrorIs(t, err, manifest.ErrUnknownKind)
}
