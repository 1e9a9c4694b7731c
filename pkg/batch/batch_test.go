package batch_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-kit/log"
	"github.com/sre-norns/envprobe/pkg/batch"
	"github.com/sre-norns/envprobe/pkg/envdetect"
	"github.com/stretchr/testify/require"
)

func classifierFactory(t *testing.T) batch.ClassifierFactory {
	t.Helper()
	classifier, err := envdetect.New(envdetect.DefaultRules())
	require.NoError(t, err)

	return func(logger log.Logger) batch.Classifier {
		return classifier.WithLogger(logger)
	}
}

func TestParseTargets(t *testing.T) {
	given := `# sample tenants
https://apps.cac1.pure.cloud/directory/#/person/7214c54e-64d5-4108-bc6f-9fd8f5ebfae0

https://login.mypurecloud.com/#/authenticate-adv/org/wawanesa-dr   # DR login
	https://apps.mypurecloud.com/directory/#/person/123456
`

	got, err := batch.ParseTargets(strings.NewReader(given))
	require.NoError(t, err)
	require.Equal(t, []batch.Target{
		{URL: "https://apps.cac1.pure.cloud/directory/#/person/7214c54e-64d5-4108-bc6f-9fd8f5ebfae0"},
		{URL: "https://login.mypurecloud.com/#/authenticate-adv/org/wawanesa-dr"},
		{URL: "https://apps.mypurecloud.com/directory/#/person/123456"},
	}, got.Targets)
}

func TestExpectation_Met(t *testing.T) {
	result := envdetect.Result{Environment: envdetect.DR, Method: envdetect.MethodURLPattern}

	testCases := map[string]struct {
		given  *batch.Expectation
		expect bool
	}{
		"none":              {given: nil, expect: true},
		"empty":             {given: &batch.Expectation{}, expect: true},
		"environment":       {given: &batch.Expectation{Environment: envdetect.DR}, expect: true},
		"wrong-environment": {given: &batch.Expectation{Environment: envdetect.Test}, expect: false},
		"both":              {given: &batch.Expectation{Environment: envdetect.DR, Method: envdetect.MethodURLPattern}, expect: true},
		"wrong-method":      {given: &batch.Expectation{Environment: envdetect.DR, Method: envdetect.MethodHostname}, expect: false},
	}

	for name, tc := range testCases {
		test := tc
		t.Run(name, func(t *testing.T) {
			require.Equal(t, test.expect, test.given.Met(result))
		})
	}
}

func TestRun(t *testing.T) {
	targets := batch.TargetList{
		Targets: []batch.Target{
			{
				Name:   "cac1",
				URL:    "https://apps.cac1.pure.cloud/directory/",
				Expect: &batch.Expectation{Environment: envdetect.Test, Method: envdetect.MethodHostname},
			},
			{
				URL:    "https://login.mypurecloud.com/#/authenticate-adv/org/wawanesa-dr",
				Expect: &batch.Expectation{Environment: envdetect.DR},
			},
		},
	}

	report := batch.Run(context.Background(), classifierFactory(t), targets, batch.RunOptions{})
	require.Equal(t, batch.StatusSuccess, report.Status)
	require.Equal(t, 2, report.Passed)
	require.Equal(t, 0, report.Failed)
	require.Len(t, report.Outcomes, 2)
	require.Empty(t, report.Outcomes[0].Log)

	targets.Targets[1].Expect = &batch.Expectation{Environment: envdetect.Production}
	report = batch.Run(context.Background(), classifierFactory(t), targets, batch.RunOptions{KeepLogs: true})
	require.Equal(t, batch.StatusFailed, report.Status)
	require.Equal(t, 1, report.Failed)
	require.False(t, report.Outcomes[1].Passed)
	require.Contains(t, report.Outcomes[1].Log, "wawanesa-dr")
}

func TestRun_ContentFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.html"), []byte(`<script>{"org":"d9ee1fd7-868c-4ea0-af89-5b9813db863d"}</script>`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "targets.yaml"), []byte(`kind: TargetList
spec:
  targets:
    - name: embedded
      url: https://apps.mypurecloud.com/
      contentFile: page.html
      expect:
        environment: test
        method: org_id
    - name: missing
      url: https://apps.mypurecloud.com/
      contentFile: missing.html
`), 0644))

	targets, err := batch.LoadTargets(filepath.Join(dir, "targets.yaml"))
	require.NoError(t, err)
	require.Len(t, targets.Targets, 2)

	report := batch.Run(context.Background(), classifierFactory(t), targets, batch.RunOptions{})
	require.Equal(t, batch.StatusError, report.Status)
	require.True(t, report.Outcomes[0].Passed)
	require.Equal(t, envdetect.MethodOrgID, report.Outcomes[0].Result.Method)
	require.NotEmpty(t, report.Outcomes[1].Error)
}

func TestLoadTargets_PlainList(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "urls.txt")
	require.NoError(t, os.WriteFile(filename, []byte("https://a.example.com/\nhttps://b.example.com/dr/\n"), 0644))

	targets, err := batch.LoadTargets(filename)
	require.NoError(t, err)
	require.Len(t, targets.Targets, 2)

	_, err = batch.LoadTargets(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
}

func TestRunLog(t *testing.T) {
	var forwarded bytes.Buffer
	runLog := batch.NewRunLog(log.NewLogfmtLogger(&forwarded))

	require.NoError(t, runLog.Log("msg", "hello", "n", 1))
	require.Equal(t, "msg=hello n=1\n", runLog.String())
	require.Equal(t, "msg=hello n=1\n", forwarded.String())
}
