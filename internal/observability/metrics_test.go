package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newMetrics()
	for _, c := range m.collectors() {
		require.NoError(t, reg.Register(c))
	}

	m.LevelsLoaded.Add(26)
	m.Runs.WithLabelValues("success").Inc()
	m.StageDuration.WithLabelValues("transform").Observe(0.02)
	m.CAPE.Set(3921.5)

	assert.InDelta(t, 26, testutil.ToFloat64(m.LevelsLoaded), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Runs.WithLabelValues("success")), 1e-9)
	assert.InDelta(t, 3921.5, testutil.ToFloat64(m.CAPE), 1e-9)
	assert.Equal(t, 1, testutil.CollectAndCount(m.StageDuration, "skewt_stage_duration_seconds"))

	assert.Error(t, reg.Register(newMetrics().LevelsLoaded), "second registration collides")
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()
	a.LevelsDropped.Inc()

	assert.InDelta(t, 1, testutil.ToFloat64(a.LevelsDropped), 1e-9)
	assert.Zero(t, testutil.ToFloat64(b.LevelsDropped))
}
