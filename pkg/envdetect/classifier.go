package envdetect

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// OrgLookup resolves the organization a tenant URL belongs to by asking the tenant API.
// Endpoints are tried in order; an error means "no match" for that endpoint.
type OrgLookup interface {
	Endpoints(origin *url.URL) []string
	FetchOrgID(ctx context.Context, endpoint string) (string, error)
}

type Option func(*Classifier)

// WithLookup enables the live API probe
func WithLookup(lookup OrgLookup) Option {
	return func(c *Classifier) {
		c.lookup = lookup
	}
}

func WithLogger(logger log.Logger) Option {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(c *Classifier) {
		c.metrics = metrics
	}
}

// Classifier is immutable once created and safe for concurrent use
type Classifier struct {
	rules  Rules
	orgIDs []string

	lookup  OrgLookup
	logger  log.Logger
	metrics *Metrics
}

func New(rules Rules, options ...Option) (*Classifier, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	normalized := rules.normalized()
	c := &Classifier{
		rules:  normalized,
		orgIDs: normalized.OrganizationIDs(),
		logger: log.NewNopLogger(),
	}

	for _, option := range options {
		option(c)
	}

	return c, nil
}

// WithLogger returns a classifier sharing the same rules and lookup that logs to logger
func (c *Classifier) WithLogger(logger log.Logger) *Classifier {
	clone := *c
	WithLogger(logger)(&clone)
	return &clone
}

// Rules returns a copy of the rules in effect
func (c *Classifier) Rules() Rules {
	return c.rules.Clone()
}

// Classify determines the environment of targetURL. Content is optional page content,
// an empty string means none. Classify never fails: a URL that does not parse is matched
// as empty components and probe failures count as no match.
func (c *Classifier) Classify(ctx context.Context, targetURL string, content string) Result {
	result := c.classify(ctx, targetURL, content)
	c.metrics.observeResult(result)

	level.Debug(c.logger).Log("msg", "classified", "url", targetURL, "environment", result.Environment, "method", result.Method, "confidence", result.Confidence, "source", result.Source)
	return result
}

func (c *Classifier) classify(ctx context.Context, targetURL string, content string) Result {
	logger := log.With(c.logger, "url", targetURL)

	if content != "" {
		for _, id := range c.orgIDs {
			if strings.Contains(content, id) {
				level.Debug(logger).Log("msg", "organization ID found in content", "orgId", id)
				result := newResult(c.rules.Organizations[id], MethodOrgID, id)
				result.OrgID = id
				return result
			}
		}
	}

	parts := splitURL(targetURL)
	level.Debug(logger).Log("msg", "URL components", "host", parts.host, "path", parts.path, "fragment", parts.fragment)

	for _, h := range c.rules.Hostnames {
		if strings.Contains(parts.host, h.Fragment) {
			level.Debug(logger).Log("msg", "known hostname", "fragment", h.Fragment, "environment", h.Environment)
			return newResult(h.Environment, MethodHostname, h.Fragment)
		}
	}

	text := parts.text()
	for _, category := range c.rules.Categories {
		if category.EnforceExclusions {
			if word, excluded := parts.containsAny(category.Exclusions); excluded {
				level.Debug(logger).Log("msg", "exclusion word found, skipping category", "environment", category.Environment, "word", word)
				continue
			}
		}

		for _, pattern := range category.Patterns {
			if strings.Contains(text, pattern) {
				level.Debug(logger).Log("msg", "URL pattern matched", "environment", category.Environment, "pattern", pattern)
				return newResult(category.Environment, MethodURLPattern, pattern)
			}
		}
	}

	if result, ok := c.probe(ctx, logger, parts); ok {
		return result
	}

	level.Debug(logger).Log("msg", "no environment detected, defaulting to unknown")
	return DefaultResult()
}

func (c *Classifier) probe(ctx context.Context, logger log.Logger, parts urlParts) (Result, bool) {
	if c.lookup == nil {
		return Result{}, false
	}

	origin := parts.origin()
	if origin == nil {
		level.Debug(logger).Log("msg", "no host to probe")
		return Result{}, false
	}

	for _, endpoint := range c.lookup.Endpoints(origin) {
		if ctx.Err() != nil {
			level.Debug(logger).Log("msg", "probe abandoned", "err", ctx.Err())
			return Result{}, false
		}

		started := time.Now()
		id, err := c.lookup.FetchOrgID(ctx, endpoint)
		if err != nil {
			c.metrics.observeProbe(probeFailed, time.Since(started))
			level.Info(logger).Log("msg", "probe failed", "endpoint", endpoint, "err", err)
			continue
		}

		env, known := c.rules.Organizations[id]
		if !known {
			c.metrics.observeProbe(probeUnmapped, time.Since(started))
			level.Debug(logger).Log("msg", "organization ID is not mapped", "endpoint", endpoint, "orgId", id)
			continue
		}

		c.metrics.observeProbe(probeMatched, time.Since(started))
		level.Debug(logger).Log("msg", "organization ID matched", "endpoint", endpoint, "orgId", id, "environment", env)

		result := newResult(env, MethodAPIRequest, endpoint)
		result.OrgID = id
		return result, true
	}

	return Result{}, false
}
