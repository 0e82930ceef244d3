package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GovernanceMetrics tracks runtime calls and the multisig request pipeline.
type GovernanceMetrics struct {
	calls    *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	requests *prometheus.CounterVec
	pending  prometheus.Gauge
}

var (
	governanceOnce     sync.Once
	governanceRegistry *GovernanceMetrics
)

// Governance returns the lazily registered collectors.
func Governance() *GovernanceMetrics {
	governanceOnce.Do(func() {
		governanceRegistry = &GovernanceMetrics{
			calls: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "fiattoken",
				Name:      "calls_total",
				Help:      "Total runtime calls segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "fiattoken",
				Name:      "call_errors_total",
				Help:      "Failed runtime calls segmented by method and error kind.",
			}, []string{"method", "kind"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "fiattoken",
				Name:      "call_duration_seconds",
				Help:      "Latency distribution of runtime calls.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "fiattoken",
				Name:      "multisig_requests_total",
				Help:      "Multisig request transitions segmented by action and stage.",
			}, []string{"action", "stage"}),
			pending: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "fiattoken",
				Name:      "multisig_pending",
				Help:      "Number of stored multisig requests awaiting execution or removal.",
			}),
		}
		prometheus.MustRegister(
			governanceRegistry.calls,
			governanceRegistry.errors,
			governanceRegistry.latency,
			governanceRegistry.requests,
			governanceRegistry.pending,
		)
	})
	return governanceRegistry
}

// ObserveCall records a finished call. An empty kind marks success.
func (m *GovernanceMetrics) ObserveCall(method, kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	method = normalise(method)
	outcome := "ok"
	if kind = strings.TrimSpace(kind); kind != "" {
		outcome = "error"
		m.errors.WithLabelValues(method, kind).Inc()
	}
	m.calls.WithLabelValues(method, outcome).Inc()
	m.latency.WithLabelValues(method).Observe(elapsed.Seconds())
}

// RecordRequest counts a request transition such as created or executed.
func (m *GovernanceMetrics) RecordRequest(action, stage string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(normalise(action), normalise(stage)).Inc()
}

// SetPending publishes the number of stored requests.
func (m *GovernanceMetrics) SetPending(count int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(count))
}

func normalise(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
