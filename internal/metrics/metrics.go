// Package metrics holds the run counters exported for node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are registered on a private registry so repeated runs in one process
// (the scheduler) and tests never collide on the global one.
type Metrics struct {
	Registry *prometheus.Registry

	PagesFetched       *prometheus.CounterVec
	FetchFailures      *prometheus.CounterVec
	FetchRetries       *prometheus.CounterVec
	Cards              *prometheus.CounterVec
	ExtractionFailures *prometheus.CounterVec
	RecordsRejected    prometheus.Counter
	DuplicatesRemoved  prometheus.Counter
	RecordsNew         prometheus.Counter
	CanonicalSize      prometheus.Gauge
	LastRunTimestamp   prometheus.Gauge
	RunDuration        prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		PagesFetched: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jobwatch_pages_fetched_total",
			Help: "Listing pages fetched and parsed, by source",
		}, []string{"source"}),
		FetchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jobwatch_fetch_failures_total",
			Help: "Fetches that exhausted their retry budget, by source",
		}, []string{"source"}),
		FetchRetries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jobwatch_fetch_retries_total",
			Help: "Fetch attempts beyond the first, by source",
		}, []string{"source"}),
		Cards: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jobwatch_cards_total",
			Help: "Candidate records extracted, by source",
		}, []string{"source"}),
		ExtractionFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jobwatch_extraction_failures_total",
			Help: "Cards or payload nodes that could not be converted, by source",
		}, []string{"source"}),
		RecordsRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "jobwatch_records_rejected_total",
			Help: "Records dropped by validation",
		}),
		DuplicatesRemoved: f.NewCounter(prometheus.CounterOpts{
			Name: "jobwatch_duplicates_removed_total",
			Help: "Records removed as cross-source duplicates",
		}),
		RecordsNew: f.NewCounter(prometheus.CounterOpts{
			Name: "jobwatch_records_new_total",
			Help: "Records added to the canonical set",
		}),
		CanonicalSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "jobwatch_canonical_records",
			Help: "Size of the canonical set after the last run",
		}),
		LastRunTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Name: "jobwatch_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobwatch_run_duration_seconds",
			Help:    "Wall time of a pipeline run",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200},
		}),
	}
}

// WriteTextfile dumps the registry in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
