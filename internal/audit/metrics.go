package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for audit emission.
type Metrics struct {
	Emitted        *prometheus.CounterVec
	Failures       prometheus.Counter
	BreakerDropped prometheus.Counter
	BreakerState   prometheus.Gauge
}

// NewMetrics creates and registers the audit collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		Emitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orgtrakker_audit_events_emitted_total",
			Help: "Audit events accepted by the sink, by action",
		}, []string{"action"}),
		Failures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orgtrakker_audit_emit_failures_total",
			Help: "Audit events the sink rejected",
		}),
		BreakerDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orgtrakker_audit_breaker_dropped_total",
			Help: "Audit events dropped while the sink circuit was open",
		}),
		BreakerState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "orgtrakker_audit_breaker_state",
			Help: "Audit sink circuit state (0=closed, 1=open)",
		}),
	}
}
