// Package metrics exposes Prometheus instrumentation for the sync jobs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the sync collectors, registered against an injected
// registry so tests can use isolated instances
type Metrics struct {
	registry *prometheus.Registry

	RecordsTotal *prometheus.CounterVec
	RunsTotal    *prometheus.CounterVec
	RunDuration  *prometheus.HistogramVec
}

// New creates a metrics set on a fresh registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		RecordsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crmsync_records_total",
			Help: "Records processed by sync pipelines, by job and outcome.",
		}, []string{"job", "outcome"}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crmsync_runs_total",
			Help: "Completed sync runs, by job and final status.",
		}, []string{"job", "status"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crmsync_run_duration_seconds",
			Help:    "Wall-clock duration of sync runs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"job"}),
	}
}

// Handler returns an HTTP handler serving the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRecords adds record counts for one finished run
func (m *Metrics) ObserveRecords(job string, inserted, updated, errors int) {
	m.RecordsTotal.WithLabelValues(job, "inserted").Add(float64(inserted))
	m.RecordsTotal.WithLabelValues(job, "updated").Add(float64(updated))
	m.RecordsTotal.WithLabelValues(job, "error").Add(float64(errors))
}

// ObserveRun records one finished run's status and duration
func (m *Metrics) ObserveRun(job, status string, seconds float64) {
	m.RunsTotal.WithLabelValues(job, status).Inc()
	m.RunDuration.WithLabelValues(job).Observe(seconds)
}
