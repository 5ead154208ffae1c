package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records campaign ledger operation activity for Prometheus.
type LedgerMetrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	ledgerMetricsOnce sync.Once
	ledgerRegistry    *LedgerMetrics
)

// Ledger returns the lazily-initialised metrics registry used to record
// ledger operation activity.
func Ledger() *LedgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "fundchain",
				Subsystem: "ledger",
				Name:      "requests_total",
				Help:      "Total ledger operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "fundchain",
				Subsystem: "ledger",
				Name:      "errors_total",
				Help:      "Total rejected ledger operations segmented by operation.",
			}, []string{"operation"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "fundchain",
				Subsystem: "ledger",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for ledger operations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
		}
		prometheus.MustRegister(ledgerRegistry.requests, ledgerRegistry.errors, ledgerRegistry.latency)
	})
	return ledgerRegistry
}

// Observe records a completed ledger operation with its outcome and duration.
func (m *LedgerMetrics) Observe(operation string, err error, started time.Time) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		m.errors.WithLabelValues(operation).Inc()
	}
	m.requests.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
