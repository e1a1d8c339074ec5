package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "skewt"

// Metrics holds the Prometheus counters, histograms, and gauges for the sounding pipeline.
type Metrics struct {
	LevelsLoaded    prometheus.Counter
	LevelsDropped   prometheus.Counter
	Runs            *prometheus.CounterVec   // labels: outcome={success,error}
	StageDuration   *prometheus.HistogramVec // labels: stage={extract,transform,load}
	PipelineRunning prometheus.Gauge

	// Last analysis.
	CAPE        prometheus.Gauge
	CIN         prometheus.Gauge
	LCLPressure prometheus.Gauge

	ChartsPublished *prometheus.CounterVec // labels: sink
}

func newMetrics() *Metrics {
	return &Metrics{
		LevelsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "levels_loaded_total",
			Help:      "Total sounding levels read from input files.",
		}),
		LevelsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "levels_dropped_total",
			Help:      "Total levels discarded for having no temperature, dewpoint or wind.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}, []string{"stage"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is in progress.",
		}),
		CAPE: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_cape_joules_per_kilogram",
			Help:      "CAPE of the most recent analysis.",
		}),
		CIN: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_cin_joules_per_kilogram",
			Help:      "CIN of the most recent analysis.",
		}),
		LCLPressure: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_lcl_pressure_hectopascals",
			Help:      "LCL pressure of the most recent analysis.",
		}),
		ChartsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charts_published_total",
			Help:      "Rendered charts delivered, by sink.",
		}, []string{"sink"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.LevelsLoaded,
		m.LevelsDropped,
		m.Runs,
		m.StageDuration,
		m.PipelineRunning,
		m.CAPE,
		m.CIN,
		m.LCLPressure,
		m.ChartsPublished,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
