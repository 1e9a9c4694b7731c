// Package envdetect classifies which deployment environment a contact-center URL belongs to.
//
// Classification consults, in a fixed priority order: organization IDs embedded in page content,
// hostname special cases, URL substring patterns per environment category and, as the last resort,
// a live lookup of the organization ID through the tenant API.
package envdetect

// Environment is a label of a deployment tier
type Environment string

const (
	Production Environment = "production"
	Test       Environment = "test"
	DR         Environment = "dr"
	Dev        Environment = "dev"
	Unknown    Environment = "unknown"
)

// Method identifies the rule that produced a classification
type Method string

const (
	MethodOrgID      Method = "org_id"
	MethodHostname   Method = "hostname"
	MethodURLPattern Method = "url_pattern"
	MethodAPIRequest Method = "api_request"
	MethodDefault    Method = "default"
)

// Confidence of each rule. These are fixed weights of the signal source, not probabilities.
const (
	ConfidenceOrgID      = 0.95
	ConfidenceHostname   = 0.8
	ConfidenceURLPattern = 0.7
	ConfidenceAPIRequest = 0.95
	ConfidenceDefault    = 0.5
)

// Methods lists all rule tags in priority order
var Methods = []Method{
	MethodOrgID,
	MethodHostname,
	MethodURLPattern,
	MethodAPIRequest,
	MethodDefault,
}

func (m Method) Confidence() float64 {
	switch m {
	case MethodOrgID:
		return ConfidenceOrgID
	case MethodHostname:
		return ConfidenceHostname
	case MethodURLPattern:
		return ConfidenceURLPattern
	case MethodAPIRequest:
		return ConfidenceAPIRequest
	}

	return ConfidenceDefault
}

// Result of a classification
type Result struct {
	Environment Environment `json:"environment" yaml:"environment" xml:"environment"`
	Confidence  float64     `json:"confidence" yaml:"confidence" xml:"confidence"`
	Method      Method      `json:"method" yaml:"method" xml:"method"`

	// Source is what matched: an organization ID, a hostname fragment, a URL pattern or a probed endpoint
	Source string `json:"source,omitempty" yaml:"source,omitempty" xml:"source,omitempty"`
	OrgID  string `json:"orgId,omitempty" yaml:"orgId,omitempty" xml:"orgId,omitempty"`
}

func newResult(env Environment, method Method, source string) Result {
	return Result{
		Environment: env,
		Confidence:  method.Confidence(),
		Method:      method,
		Source:      source,
	}
}

// DefaultResult is returned when no rule matches
func DefaultResult() Result {
	return newResult(Unknown, MethodDefault, "")
}

// IsAuthoritative reports if the result comes from a rule strong enough to act on
func (r Result) IsAuthoritative() bool {
	return r.Method != MethodDefault && r.Confidence >= ConfidenceURLPattern
}
