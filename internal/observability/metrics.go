package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "forecast_ensemble"

// Metrics holds the Prometheus collectors for an ensemble run.
type Metrics struct {
	Units                *prometheus.CounterVec   // labels: outcome={ok,fetch_failed,malformed,empty}
	FetchDuration        *prometheus.HistogramVec // labels: model
	ModelSummaries       prometheus.Counter
	EnsembleRows         prometheus.Gauge
	RunDuration          prometheus.Histogram
	SinkErrors           *prometheus.CounterVec // labels: sink
	PipelineRunning      prometheus.Gauge
	LastSuccessTimestamp prometheus.Gauge
	registry             *prometheus.Registry
}

func newCollectors() *Metrics {
	return &Metrics{
		Units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_total",
			Help:      "Location/model pairs processed, by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Hourly forecast fetch duration per model.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"model"}),
		ModelSummaries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_summaries_total",
			Help:      "Per-model day-part summaries produced.",
		}),
		EnsembleRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ensemble_rows",
			Help:      "Consensus rows in the last completed run.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-summarize-fuse-write run.",
			Buckets:   []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Report sink failures by sink.",
		}, []string{"sink"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		LastSuccessTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run whose report reached every sink.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Units,
		m.FetchDuration,
		m.ModelSummaries,
		m.EnsembleRows,
		m.RunDuration,
		m.SinkErrors,
		m.PipelineRunning,
		m.LastSuccessTimestamp,
	}
}

// NewMetrics creates all run metrics and registers them with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newCollectors()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics on a private registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newCollectors()
	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(m.collectors()...)
	return m
}

// Gatherer returns the registry the metrics live in, for pushing at the end
// of a batch run.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m.registry != nil {
		return m.registry
	}
	return prometheus.DefaultGatherer
}
