// Package orglookup asks a tenant's own API which organization it belongs to.
package orglookup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/martian/har"
)

const (
	DefaultTimeout   = 5 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// maxBodySize caps how much of an API response is read
	maxBodySize = 1 << 20
)

// DefaultEndpoints are organization API paths, tried in order
var DefaultEndpoints = []string{
	"/api/v2/organizations/me",
	"/api/v1/org?fl=*",
}

var ErrUnexpectedStatus = fmt.Errorf("unexpected response status")

type Config struct {
	Endpoints []string      `help:"Organization API paths to probe, in order" default:"/api/v2/organizations/me,/api/v1/org?fl=*"`
	Timeout   time.Duration `help:"Timeout of each probe request" default:"5s"`
	UserAgent string        `help:"User-Agent header of probe requests" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"`
	Disabled  bool          `help:"Do not probe organization APIs"`
}

func DefaultConfig() Config {
	return Config{
		Endpoints: append([]string(nil), DefaultEndpoints...),
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

type ProberOption func(*Prober)

func WithHttpClient(client *http.Client) ProberOption {
	return func(p *Prober) {
		if client != nil {
			p.client = client
		}
	}
}

func WithLogger(logger log.Logger) ProberOption {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRecorder captures every probe request and response into a HAR log
func WithRecorder(recorder *har.Logger) ProberOption {
	return func(p *Prober) {
		p.recorder = recorder
	}
}

// Prober fetches organization IDs over HTTP
type Prober struct {
	endpoints []string
	timeout   time.Duration
	userAgent string

	client   *http.Client
	logger   log.Logger
	recorder *har.Logger
	requests atomic.Uint64
}

func NewProber(config Config, options ...ProberOption) *Prober {
	p := &Prober{
		endpoints: append([]string(nil), config.Endpoints...),
		timeout:   config.Timeout,
		userAgent: config.UserAgent,
		client:    &http.Client{},
		logger:    log.NewNopLogger(),
	}

	if len(p.endpoints) == 0 {
		p.endpoints = append(p.endpoints, DefaultEndpoints...)
	}
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	if p.userAgent == "" {
		p.userAgent = DefaultUserAgent
	}

	for _, option := range options {
		option(p)
	}

	return p
}

// Endpoints returns absolute probe URLs on the origin's scheme and host
func (p *Prober) Endpoints(origin *url.URL) []string {
	base := origin.Scheme + "://" + origin.Host
	result := make([]string, 0, len(p.endpoints))
	for _, endpoint := range p.endpoints {
		if !strings.HasPrefix(endpoint, "/") {
			endpoint = "/" + endpoint
		}
		result = append(result, base+endpoint)
	}

	return result
}

// FetchOrgID requests a single endpoint and extracts the organization ID from its response
func (p *Prober) FetchOrgID(ctx context.Context, endpoint string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	logger := log.With(p.logger, "endpoint", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	id := fmt.Sprintf("%d", p.requests.Add(1))
	if p.recorder != nil {
		if err := p.recorder.RecordRequest(id, req); err != nil {
			level.Warn(logger).Log("msg", "failed to record request", "err", err)
		}
	}

	req, trace := traceRequest(req, logger)
	res, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if p.recorder != nil {
		if err := p.recorder.RecordResponse(id, res); err != nil {
			level.Warn(logger).Log("msg", "failed to record response", "err", err)
		}
	}

	level.Debug(logger).Log(append([]any{"msg", "probe response", "status", res.StatusCode}, trace.keyvals()...)...)

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxBodySize))
		return "", fmt.Errorf("%w: %v", ErrUnexpectedStatus, res.Status)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return ExtractOrgID(body)
}
