package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for record writes.
type Metrics struct {
	WriteDuration *prometheus.HistogramVec
	WritesTotal   *prometheus.CounterVec
	Rejections    *prometheus.CounterVec
	RankConflicts prometheus.Gauge
}

// New creates a new Metrics instance with all record metrics registered.
func New() *Metrics {
	return &Metrics{
		WriteDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orgtrakker_record_write_duration_seconds",
			Help:    "Duration of record writes from resolution to audit",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"kind", "action"}),
		WritesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orgtrakker_record_writes_total",
			Help: "Record writes by kind, action and outcome",
		}, []string{"kind", "action", "outcome"}),
		Rejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orgtrakker_record_rejections_total",
			Help: "Rejected writes by error code",
		}, []string{"code"}),
		RankConflicts: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "orgtrakker_role_level_rank_conflicts",
			Help: "Ranks shared by more than one role level in the last report",
		}),
	}
}

// ObserveWrite records the duration of a write.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveWrite(kind, action string, start time.Time) {
	m.WriteDuration.WithLabelValues(kind, action).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementWrite(kind, action, outcome string) {
	m.WritesTotal.WithLabelValues(kind, action, outcome).Inc()
}

func (m *Metrics) IncrementRejection(code string) {
	m.Rejections.WithLabelValues(code).Inc()
}

func (m *Metrics) SetRankConflicts(n int) {
	m.RankConflicts.Set(float64(n))
}
