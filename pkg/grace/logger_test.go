package grace_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-kit/log/level"
	"github.com/sre-norns/envprobe/pkg/grace"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	testCases := map[string]struct {
		minLevel     string
		expectDebug  bool
		expectInfo   bool
		expectWarn   bool
		expectErrors bool
	}{
		"debug":   {minLevel: "debug", expectDebug: true, expectInfo: true, expectWarn: true, expectErrors: true},
		"info":    {minLevel: "info", expectInfo: true, expectWarn: true, expectErrors: true},
		"warn":    {minLevel: "warn", expectWarn: true, expectErrors: true},
		"error":   {minLevel: "error", expectErrors: true},
		"unknown": {minLevel: "verbose", expectInfo: true, expectWarn: true, expectErrors: true},
	}

	for name, tc := range testCases {
		test := tc
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			logger := grace.NewLogger(&out, test.minLevel)

			level.Debug(logger).Log("msg", "debug-line")
			level.Info(logger).Log("msg", "info-line")
			level.Warn(logger).Log("msg", "warn-line")
			level.Error(logger).Log("msg", "error-line")

			require.Equal(t, test.expectDebug, strings.Contains(out.String(), "debug-line"))
			require.Equal(t, test.expectInfo, strings.Contains(out.String(), "info-line"))
			require.Equal(t, test.expectWarn, strings.Contains(out.String(), "warn-line"))
			require.Equal(t, test.expectErrors, strings.Contains(out.String(), "error-line"))
			require.Contains(t, out.String(), "caller=")
		})
	}
}
