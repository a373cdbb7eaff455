package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the pipeline.
type Metrics struct {
	FiresRead            prometheus.Counter
	FiresWritten         prometheus.Counter
	FiresPublished       prometheus.Counter
	ClimateRowsLoaded    *prometheus.CounterVec // labels: variable={tmp,pcp,pdsi}
	ClimateSentinelRows  prometheus.Counter
	FiresWithoutNeighbor prometheus.Counter
	StageDuration        *prometheus.HistogramVec // labels: stage
	PipelineRunning      prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FiresRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire_etl",
			Name:      "fires_read_total",
			Help:      "Fire records decoded from the input CSV.",
		}),
		FiresWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire_etl",
			Name:      "fires_written_total",
			Help:      "Enriched fire records written to the output CSV.",
		}),
		FiresPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire_etl",
			Name:      "fires_published_total",
			Help:      "Enriched fire records published to optional sinks.",
		}),
		ClimateRowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wildfire_etl",
			Name:      "climate_rows_loaded_total",
			Help:      "Climate rows kept after the year filter, by variable.",
		}, []string{"variable"}),
		ClimateSentinelRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire_etl",
			Name:      "climate_sentinel_rows_total",
			Help:      "Fires in states without climate coverage.",
		}),
		FiresWithoutNeighbor: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire_etl",
			Name:      "fires_without_neighbors_total",
			Help:      "Fires with no qualifying neighbor containment time.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wildfire_etl",
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}, []string{"stage"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wildfire_etl",
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.FiresRead,
		m.FiresWritten,
		m.FiresPublished,
		m.ClimateRowsLoaded,
		m.ClimateSentinelRows,
		m.FiresWithoutNeighbor,
		m.StageDuration,
		m.PipelineRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FiresRead:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wildfire_etl", Name: "fires_read_total"}),
		FiresWritten:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wildfire_etl", Name: "fires_written_total"}),
		FiresPublished:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wildfire_etl", Name: "fires_published_total"}),
		ClimateRowsLoaded:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "wildfire_etl", Name: "climate_rows_loaded_total"}, []string{"variable"}),
		ClimateSentinelRows:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wildfire_etl", Name: "climate_sentinel_rows_total"}),
		FiresWithoutNeighbor: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wildfire_etl", Name: "fires_without_neighbors_total"}),
		StageDuration:        prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "wildfire_etl", Name: "stage_duration_seconds"}, []string{"stage"}),
		PipelineRunning:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "wildfire_etl", Name: "pipeline_running"}),
	}
}
