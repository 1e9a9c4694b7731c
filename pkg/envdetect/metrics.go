package envdetect

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "envdetect"

type probeOutcome string

const (
	probeMatched  probeOutcome = "matched"
	probeUnmapped probeOutcome = "unmapped"
	probeFailed   probeOutcome = "failed"
)

// Metrics of classifications. A nil *Metrics records nothing.
type Metrics struct {
	classifications *prometheus.CounterVec
	probes          *prometheus.CounterVec
	probeDuration   prometheus.Histogram
}

func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "classifications_total",
			Help:      "Number of URL classifications by resulting environment and rule",
		}, []string{"environment", "method"}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "probe_requests_total",
			Help:      "Number of organization API probe attempts by outcome",
		}, []string{"outcome"}),
		probeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "probe_duration_seconds",
			Help:      "Duration of organization API probe attempts",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}

	for _, c := range []prometheus.Collector{m.classifications, m.probes, m.probeDuration} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) observeResult(r Result) {
	if m == nil {
		return
	}

	m.classifications.WithLabelValues(string(r.Environment), string(r.Method)).Inc()
}

func (m *Metrics) observeProbe(outcome probeOutcome, d time.Duration) {
	if m == nil {
		return
	}

	m.probes.WithLabelValues(string(outcome)).Inc()
	m.probeDuration.Observe(d.Seconds())
}
