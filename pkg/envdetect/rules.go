package envdetect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sre-norns/envprobe/pkg/grace"
	"golang.org/x/mod/semver"
)

// RulesMajorVersion is the only major version of the rules format this package understands
const RulesMajorVersion = "v1"

// HostnameRule classifies any URL whose host contains Fragment, ahead of URL pattern checks
type HostnameRule struct {
	Fragment    string      `json:"fragment" yaml:"fragment"`
	Environment Environment `json:"environment" yaml:"environment"`
}

// PatternCategory is a set of URL substrings that indicate an environment.
// Exclusions are words known to produce false positives. They suppress the whole
// category only when EnforceExclusions is set.
type PatternCategory struct {
	Environment       Environment `json:"environment" yaml:"environment"`
	Patterns          []string    `json:"patterns" yaml:"patterns"`
	Exclusions        []string    `json:"exclusions,omitempty" yaml:"exclusions,omitempty"`
	EnforceExclusions bool        `json:"enforceExclusions,omitempty" yaml:"enforceExclusions,omitempty"`
}

// Rules is the static configuration of a classifier
type Rules struct {
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Organizations maps organization IDs to the environment they belong to
	Organizations map[string]Environment `json:"organizations,omitempty" yaml:"organizations,omitempty"`

	// Hostnames are checked in order, first match wins
	Hostnames []HostnameRule `json:"hostnames,omitempty" yaml:"hostnames,omitempty"`

	// Categories are checked in order, first match wins
	Categories []PatternCategory `json:"categories,omitempty" yaml:"categories,omitempty"`
}

func DefaultRules() Rules {
	return Rules{
		Version: "v1.0.0",
		Organizations: map[string]Environment{
			"d9ee1fd7-868c-4ea0-af89-5b9813db863d": Test, // Wawanesa-Test
		},
		Hostnames: []HostnameRule{
			{Fragment: "cac1.pure.cloud", Environment: Test},
		},
		Categories: []PatternCategory{
			{
				Environment:       DR,
				Patterns:          []string{".dr.", "-dr.", "-dr-", "/dr/", "wawanesa-dr"},
				Exclusions:        []string{"directory", "drive", "drop", "draw"},
				EnforceExclusions: true,
			},
			{
				Environment: Test,
				Patterns:    []string{".test.", "-test-", "wawanesa-test", "cac1.pure.cloud"},
				Exclusions:  []string{"latest", "contest", "attestation"},
			},
		},
	}
}

// Exclusions returns false-positive words of each category, keyed by environment
func (r Rules) Exclusions() map[Environment][]string {
	result := make(map[Environment][]string, len(r.Categories))
	for _, c := range r.Categories {
		result[c.Environment] = append(result[c.Environment], c.Exclusions...)
	}

	return result
}

// Clone returns a deep copy of the rules
func (r Rules) Clone() Rules {
	result := Rules{
		Version:   r.Version,
		Hostnames: append([]HostnameRule(nil), r.Hostnames...),
	}

	if r.Organizations != nil {
		result.Organizations = make(map[string]Environment, len(r.Organizations))
		for id, env := range r.Organizations {
			result.Organizations[id] = env
		}
	}

	for _, c := range r.Categories {
		result.Categories = append(result.Categories, PatternCategory{
			Environment:       c.Environment,
			Patterns:          append([]string(nil), c.Patterns...),
			Exclusions:        append([]string(nil), c.Exclusions...),
			EnforceExclusions: c.EnforceExclusions,
		})
	}

	return result
}

// normalized returns a copy of the rules with every URL matching term lowercased.
// Organization IDs are matched against raw content and stay as is.
func (r Rules) normalized() Rules {
	result := r.Clone()
	for i := range result.Hostnames {
		result.Hostnames[i].Fragment = strings.ToLower(result.Hostnames[i].Fragment)
	}

	for i := range result.Categories {
		lowerAll(result.Categories[i].Patterns)
		lowerAll(result.Categories[i].Exclusions)
	}

	return result
}

func lowerAll(values []string) {
	for i, v := range values {
		values[i] = strings.ToLower(v)
	}
}

// Validate checks that rules can be used for classification
func (r Rules) Validate() error {
	if r.Version != "" {
		if !semver.IsValid(r.Version) {
			return grace.RaiseError("semantic version like v1.0.0", fmt.Sprintf("version %q", r.Version), "fix or remove the `version` field")
		}
		if major := semver.Major(r.Version); major != RulesMajorVersion {
			return grace.RaiseError(fmt.Sprintf("rules version %s.x", RulesMajorVersion), fmt.Sprintf("version %q", r.Version), "convert the rules to the supported format")
		}
	}

	for _, id := range r.OrganizationIDs() {
		if strings.TrimSpace(id) == "" {
			return grace.RaiseError("non-empty organization ID", "blank key in `organizations`", "remove the blank entry")
		}
		if r.Organizations[id] == "" {
			return grace.RaiseError("environment label", fmt.Sprintf("empty label for organization %q", id), "set the environment the organization belongs to")
		}
	}

	for i, h := range r.Hostnames {
		if strings.TrimSpace(h.Fragment) == "" {
			return grace.RaiseError("non-empty hostname fragment", fmt.Sprintf("blank fragment in hostnames[%d]", i), "remove the entry or set a fragment")
		}
		if h.Environment == "" {
			return grace.RaiseError("environment label", fmt.Sprintf("empty environment in hostnames[%d]", i), "set the environment of the hostname")
		}
	}

	for i, c := range r.Categories {
		if c.Environment == "" {
			return grace.RaiseError("environment label", fmt.Sprintf("empty environment in categories[%d]", i), "set the environment the patterns indicate")
		}

		for j, p := range c.Patterns {
			if strings.TrimSpace(p) == "" {
				return grace.RaiseError("non-empty pattern", fmt.Sprintf("blank categories[%d].patterns[%d]", i, j), "remove the empty pattern, it matches every URL")
			}
		}

		for j, e := range c.Exclusions {
			if strings.TrimSpace(e) == "" {
				return grace.RaiseError("non-empty exclusion", fmt.Sprintf("blank categories[%d].exclusions[%d]", i, j), "remove the empty exclusion, it suppresses every URL")
			}
		}
	}

	return nil
}

// Warnings reports suspicious but usable rules
func (r Rules) Warnings() []string {
	var result []string

	for _, id := range r.OrganizationIDs() {
		if _, err := uuid.Parse(id); err != nil {
			result = append(result, fmt.Sprintf("organization ID %q is not a UUID", id))
		}
	}

	seen := map[string]Environment{}
	for _, c := range r.Categories {
		for _, p := range c.Patterns {
			key := strings.ToLower(p)
			if env, ok := seen[key]; ok {
				result = append(result, fmt.Sprintf("pattern %q of %q is shadowed by category %q", p, c.Environment, env))
				continue
			}
			seen[key] = c.Environment
		}

		if len(c.Exclusions) != 0 && !c.EnforceExclusions {
			result = append(result, fmt.Sprintf("exclusions of %q are listed but not enforced", c.Environment))
		}
	}

	for _, h := range r.Hostnames {
		if env, ok := seen[strings.ToLower(h.Fragment)]; ok && env != h.Environment {
			result = append(result, fmt.Sprintf("hostname %q maps to %q but is also a %q pattern", h.Fragment, h.Environment, env))
		}
	}

	return result
}

// OrganizationIDs returns known organization IDs in sorted order
func (r Rules) OrganizationIDs() []string {
	result := make([]string, 0, len(r.Organizations))
	for id := range r.Organizations {
		result = append(result, id)
	}
	sort.Strings(result)

	return result
}
