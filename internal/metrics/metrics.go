// Package metrics holds the Prometheus collectors for the evaluation engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "assay"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	criteriaMutations *prometheus.CounterVec
	scoreUpserts      *prometheus.CounterVec
	evaluations       *prometheus.HistogramVec
	evaluationErrors  *prometheus.CounterVec
	orphansPurged     prometheus.Counter
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production so they show up on /metrics.
func New(reg prometheus.Registerer) *Metrics {
	auto := promauto.With(reg)
	return &Metrics{
		criteriaMutations: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "criteria",
			Name:      "mutations_total",
			Help:      "Criterion create, update and delete operations.",
		}, []string{"module_type", "op"}),
		scoreUpserts: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scores",
			Name:      "upserts_total",
			Help:      "Score cells written.",
		}, []string{"module_type"}),
		evaluations: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "duration_seconds",
			Help:      "Time to rehydrate and evaluate one request.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"module_type", "op"}),
		evaluationErrors: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "errors_total",
			Help:      "Evaluations that failed to load criteria or scores.",
		}, []string{"module_type", "op"}),
		orphansPurged: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scores",
			Name:      "orphans_purged_total",
			Help:      "Scores removed because their criterion no longer exists.",
		}),
	}
}

func (m *Metrics) CriterionMutated(module, op string) {
	if m == nil {
		return
	}
	m.criteriaMutations.WithLabelValues(module, op).Inc()
}

func (m *Metrics) ScoreUpserted(module string) {
	if m == nil {
		return
	}
	m.scoreUpserts.WithLabelValues(module).Inc()
}

// ObserveEvaluation records how long op took, counting it as an error when
// err is non-nil.
func (m *Metrics) ObserveEvaluation(module, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(module, op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.evaluationErrors.WithLabelValues(module, op).Inc()
	}
}

func (m *Metrics) OrphansPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.orphansPurged.Add(float64(n))
}
