package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sre-norns/envprobe/pkg/batch"
	"github.com/sre-norns/envprobe/pkg/envdetect"
	"github.com/sre-norns/envprobe/pkg/httpapi"
	"github.com/sre-norns/envprobe/pkg/kinds"
)

func TestGetFormatter(t *testing.T) {
	for _, name := range []outputFormat{"yaml", "yml", "json", "table"} {
		f, err := getFormatter(name)
		require.NoError(t, err, name)
		require.NotNil(t, f, name)
	}

	_, err := getFormatter("xml")
	require.Error(t, err)
}

func TestWriteTable(t *testing.T) {
	testCases := map[string]struct {
		given  any
		expect []string
	}{
		"classifications": {
			given: classifications{
				{URL: "https://apps.example.com/dr/", Result: envdetect.Result{
					Environment: envdetect.DR,
					Confidence:  0.7,
					Method:      envdetect.MethodURLPattern,
					Source:      "/dr/",
				}},
			},
			expect: []string{"ENVIRONMENT", "https://apps.example.com/dr/", "url_pattern", "/dr/"},
		},
		"findings": {
			given:  findings{"exclusions of \"test\" are listed but not enforced"},
			expect: []string{"FINDING", "listed but not enforced"},
		},
		"rules": {
			given:  rulesView{envdetect.DefaultRules().ToManifest("effective")},
			expect: []string{"org_id", "d9ee1fd7-868c-4ea0-af89-5b9813db863d", "cac1.pure.cloud", "wawanesa-dr"},
		},
		"report": {
			given: report{
				Status: batch.StatusFailed,
				Outcomes: []batch.Outcome{
					{
						Target: batch.Target{Name: "login", URL: "https://login.example.com/", Expect: &batch.Expectation{Environment: envdetect.Production}},
						Result: envdetect.DefaultResult(),
					},
				},
			},
			expect: []string{"login", "unknown", "production", "false"},
		},
	}

	for name, tc := range testCases {
		test := tc
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, writeTable(&out, test.given))

			for _, text := range test.expect {
				require.Contains(t, out.String(), text)
			}
		})
	}
}

func TestWriteTable_NotTabular(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeTable(&out, httpapi.VersionResponse{Version: "v1.2.3"}))
	require.Equal(t, "version: v1.2.3\n", out.String())
}

func TestRulesView_KeepsManifestEncoding(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeYaml(&out, rulesView{envdetect.DefaultRules().ToManifest("effective")}))

	var m kinds.Manifest
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &m))
	require.Equal(t, envdetect.KindRules, m.Kind)

	rules, err := envdetect.RulesFromManifest(m)
	require.NoError(t, err)
	require.Equal(t, envdetect.DefaultRules(), rules)
}

func TestReadContentFile(t *testing.T) {
	content, err := readContentFile("")
	require.NoError(t, err)
	require.Empty(t, content)

	filename := t.TempDir() + "/page.html"
	require.NoError(t, os.WriteFile(filename, []byte("<html>org</html>"), 0644))

	content, err = readContentFile(filename)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(content, "<html>"))

	_, err = readContentFile(filename + ".missing")
	require.Error(t, err)
}
