package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// forecast service.
type Metrics struct {
	Lookups         *prometheus.CounterVec // labels: method={coordinates,postcode6,postcode4,offset}, outcome={hit,miss}
	StaleRejections prometheus.Counter
	IngestDuration  prometheus.Histogram
	DatasetCreated  prometheus.Gauge
	PostcodeEnabled prometheus.Gauge

	HTTPDuration *prometheus.HistogramVec // labels: route, status
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raincast",
			Name:      "lookups_total",
			Help:      "Forecast lookups by method and outcome.",
		}, []string{"method", "outcome"}),
		StaleRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "raincast",
			Name:      "stale_rejections_total",
			Help:      "Requests rejected because the dataset left its validity window.",
		}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "raincast",
			Name:      "ingest_duration_seconds",
			Help:      "Duration of a complete dataset ingestion.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		DatasetCreated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "raincast",
			Name:      "dataset_created_timestamp_seconds",
			Help:      "Creation time of the currently served dataset as a Unix timestamp.",
		}),
		PostcodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "raincast",
			Name:      "postcode_enabled",
			Help:      "1 when postcode lookups are enabled, 0 otherwise.",
		}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "raincast",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route and status.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"route", "status"}),
	}

	prometheus.MustRegister(
		m.Lookups,
		m.StaleRejections,
		m.IngestDuration,
		m.DatasetCreated,
		m.PostcodeEnabled,
		m.HTTPDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		Lookups:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "raincast", Name: "lookups_total"}, []string{"method", "outcome"}),
		StaleRejections: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "raincast", Name: "stale_rejections_total"}),
		IngestDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "raincast", Name: "ingest_duration_seconds"}),
		DatasetCreated:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "raincast", Name: "dataset_created_timestamp_seconds"}),
		PostcodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "raincast", Name: "postcode_enabled"}),
		HTTPDuration:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "raincast", Name: "http_request_duration_seconds"}, []string{"route", "status"}),
	}
}
