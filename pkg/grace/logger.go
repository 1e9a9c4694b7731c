package grace

import (
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// NewLogger returns a logfmt logger to w that drops messages below minLevel.
// An unrecognized level means info.
func NewLogger(w io.Writer, minLevel string) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	allowed := level.AllowInfo()
	switch minLevel {
	case "debug":
		allowed = level.AllowDebug()
	case "warn":
		allowed = level.AllowWarn()
	case "error":
		allowed = level.AllowError()
	}

	return level.NewFilter(logger, allowed)
}
