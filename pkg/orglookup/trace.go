package orglookup

import (
	"crypto/tls"
	"net/http"
	"net/http/httptrace"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// requestTrace records connection milestones of a single probe request
type requestTrace struct {
	started time.Time

	dnsDone       time.Duration
	connectDone   time.Duration
	tlsDone       time.Duration
	firstByteDone time.Duration
}

func newClientTrace(logger log.Logger, t *requestTrace) *httptrace.ClientTrace {
	debug := level.Debug(logger)

	return &httptrace.ClientTrace{
		DNSStart: func(info httptrace.DNSStartInfo) {
			debug.Log("msg", "DNS resolving", "host", info.Host)
		},
		DNSDone: func(info httptrace.DNSDoneInfo) {
			t.dnsDone = time.Since(t.started)
			debug.Log("msg", "DNS resolved", "addrs", len(info.Addrs), "err", info.Err)
		},

		ConnectStart: func(network, addr string) {
			debug.Log("msg", "connecting", "addr", addr, "net", network)
		},
		ConnectDone: func(network, addr string, err error) {
			t.connectDone = time.Since(t.started)
			debug.Log("msg", "connected", "addr", addr, "net", network, "err", err)
		},

		TLSHandshakeStart: func() {
			debug.Log("msg", "TLS handshake started")
		},
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			t.tlsDone = time.Since(t.started)
			debug.Log("msg", "TLS handshake done", "version", tls.VersionName(state.Version), "err", err)
		},

		WroteRequest: func(info httptrace.WroteRequestInfo) {
			debug.Log("msg", "done writing request", "err", info.Err)
		},
		GotFirstResponseByte: func() {
			t.firstByteDone = time.Since(t.started)
			debug.Log("msg", "response data received")
		},
	}
}

func traceRequest(req *http.Request, logger log.Logger) (*http.Request, *requestTrace) {
	t := &requestTrace{started: time.Now()}
	return req.WithContext(httptrace.WithClientTrace(req.Context(), newClientTrace(logger, t))), t
}

func (t *requestTrace) keyvals() []any {
	return []any{
		"dns", t.dnsDone,
		"connect", t.connectDone,
		"tls", t.tlsDone,
		"firstByte", t.firstByteDone,
		"total", time.Since(t.started),
	}
}
