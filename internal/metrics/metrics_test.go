package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func family(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CriterionMutated("risk", "create")
	m.CriterionMutated("risk", "create")
	m.CriterionMutated("bia", "delete")
	m.ScoreUpserted("strategy")
	m.OrphansPurged(3)
	m.OrphansPurged(0)

	f := family(t, reg, "assay_criteria_mutations_total")
	require.NotNil(t, f)
	assert.Len(t, f.GetMetric(), 2)

	var total float64
	for _, metric := range f.GetMetric() {
		total += metric.GetCounter().GetValue()
	}
	assert.Equal(t, 3.0, total)

	f = family(t, reg, "assay_scores_orphans_purged_total")
	require.NotNil(t, f)
	assert.Equal(t, 3.0, f.GetMetric()[0].GetCounter().GetValue())
}

func TestObserveEvaluation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveEvaluation("strategy", "ranking", time.Now(), nil)
	m.ObserveEvaluation("strategy", "ranking", time.Now(), errors.New("db down"))

	f := family(t, reg, "assay_evaluation_duration_seconds")
	require.NotNil(t, f)
	assert.Equal(t, uint64(2), f.GetMetric()[0].GetHistogram().GetSampleCount())

	f = family(t, reg, "assay_evaluation_errors_total")
	require.NotNil(t, f)
	assert.Equal(t, 1.0, f.GetMetric()[0].GetCounter().GetValue())
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CriterionMutated("risk", "create")
		m.ScoreUpserted("risk")
		m.ObserveEvaluation("risk", "score", time.Now(), nil)
		m.OrphansPurged(1)
	})
}
