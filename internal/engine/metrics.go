package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/sigtrack/internal/track"
)

const metricsNamespace = "sigtrack"

// Metrics counts commits on a private registry.
//
// Runs are short-lived batch invocations, so metrics are exported by writing
// the registry to a node_exporter textfile rather than serving /metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	commitsTotal    *prometheus.CounterVec
	itemsTotal      *prometheus.CounterVec
	skippedTotal    *prometheus.CounterVec
	failuresTotal   prometheus.Counter
	commitDuration  prometheus.Histogram
	lastCommittedTS prometheus.Gauge
}

// NewMetrics creates and registers the engine's collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "commits_total",
				Help:      "Day commits by mode (WRITE or REPLAY)",
			},
			[]string{"mode"},
		),
		itemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "items_total",
				Help:      "Change records written by category",
			},
			[]string{"category"},
		),
		skippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "skipped_items_total",
				Help:      "Input rows excluded before diffing by reason",
			},
			[]string{"reason"},
		),
		failuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "commit_failures_total",
				Help:      "Write transactions rolled back",
			},
		),
		commitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "commit_duration_seconds",
				Help:      "Wall time of CommitDay in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
		),
		lastCommittedTS: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "last_committed_report_date_seconds",
				Help:      "Report date of the most recent WRITE as a unix timestamp",
			},
		),
	}

	m.registry.MustRegister(
		m.commitsTotal,
		m.itemsTotal,
		m.skippedTotal,
		m.failuresTotal,
		m.commitDuration,
		m.lastCommittedTS,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the registry in the text exposition format to path.
// The file is written to a temporary name and renamed, so node_exporter never
// reads a partial file.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) observeCommit(res CommitResult, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.commitsTotal.WithLabelValues(string(res.Mode)).Inc()
	m.commitDuration.Observe(elapsed.Seconds())
	for _, s := range res.Skipped {
		m.skippedTotal.WithLabelValues(string(s.Reason)).Inc()
	}
	if res.Mode != track.ModeWrite {
		return
	}
	m.itemsTotal.WithLabelValues(string(track.CategoryNew)).Add(float64(res.Counts.New))
	m.itemsTotal.WithLabelValues(string(track.CategoryPersisting)).Add(float64(res.Counts.Persisting))
	m.itemsTotal.WithLabelValues(string(track.CategoryRemoved)).Add(float64(res.Counts.Removed))
	m.lastCommittedTS.Set(float64(res.ReportDate.Unix()))
}

func (m *Metrics) observeFailure() {
	if m == nil {
		return
	}
	m.failuresTotal.Inc()
}
