package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for tenant resolution.
type Metrics struct {
	ResolveDuration prometheus.Histogram
	HandlesOpened   prometheus.Counter
	ResolveFailures *prometheus.CounterVec
}

// New creates a new Metrics instance with all tenant module metrics registered.
func New() *Metrics {
	return &Metrics{
		ResolveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "orgtrakker_tenant_resolve_duration_seconds",
			Help:    "Duration of tenant store resolution, including first-time connection",
			Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		HandlesOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orgtrakker_tenant_handles_opened_total",
			Help: "Tenant store handles constructed",
		}),
		ResolveFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orgtrakker_tenant_resolve_failures_total",
			Help: "Failed tenant resolutions by reason (not_found, open)",
		}, []string{"reason"}),
	}
}

// ObserveResolve records the duration of a Resolve call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveResolve(start time.Time) {
	m.ResolveDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementHandlesOpened() {
	m.HandlesOpened.Inc()
}

func (m *Metrics) IncrementResolveFailure(reason string) {
	m.ResolveFailures.WithLabelValues(reason).Inc()
}
