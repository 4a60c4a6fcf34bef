// Package metrics provides Prometheus metrics for interval runs and the HTTP API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lowaak/interval-split/internal/engine"
)

const namespace = "interval_split"

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Engine metrics
	TicksTotal            prometheus.Counter
	BlockTransitionsTotal *prometheus.CounterVec
	RunsTotal             *prometheus.CounterVec
	RunDuration           prometheus.Histogram
	RunStatus             *prometheus.GaugeVec
	Progress              prometheus.Gauge

	// Persistence metrics
	RecordSubmitFailuresTotal prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the metrics and registers them on registry
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		panic("Metrics: registry cannot be nil")
	}
	m := &Metrics{
		registry: registry,
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Timer seconds consumed while running.",
		}),
		BlockTransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "block_transitions_total",
			Help:      "Completed blocks by tag.",
		}, []string{"tag"}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of completed runs.",
			Buckets:   prometheus.ExponentialBuckets(60, 2, 8), // 1m to ~2h
		}),
		RunStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_status",
			Help:      "1 for the current engine status, 0 otherwise.",
		}, []string{"status"}),
		Progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "progress_ratio",
			Help:      "Completed fraction of the current run.",
		}),
		RecordSubmitFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_submit_failures_total",
			Help:      "Workout records that could not be saved.",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	registry.MustRegister(
		m.TicksTotal,
		m.BlockTransitionsTotal,
		m.RunsTotal,
		m.RunDuration,
		m.RunStatus,
		m.Progress,
		m.RecordSubmitFailuresTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	m.setStatus(engine.StatusIdle)

	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveEvent updates the engine metrics. Register it with
// Runner.ListenToEvents.
func (m *Metrics) ObserveEvent(ev engine.Event) {
	switch ev.Kind {
	case engine.EventTicked:
		m.TicksTotal.Inc()
	case engine.EventBlockCompleted:
		m.BlockTransitionsTotal.WithLabelValues(string(ev.Block.Tag)).Inc()
	case engine.EventRunStarted, engine.EventRunResumed:
		m.setStatus(engine.StatusRunning)
	case engine.EventRunPaused:
		m.setStatus(engine.StatusPaused)
	case engine.EventPlanCompleted:
		m.RunsTotal.WithLabelValues("completed").Inc()
		if ev.Record != nil {
			m.RunDuration.Observe(float64(ev.Record.TotalDuration))
		}
		m.setStatus(engine.StatusCompleted)
	case engine.EventRunAbandoned:
		m.RunsTotal.WithLabelValues("abandoned").Inc()
		m.setStatus(engine.StatusIdle)
	}
}

// ObserveSnapshot tracks the progress gauge
func (m *Metrics) ObserveSnapshot(snap engine.Snapshot) {
	m.Progress.Set(snap.Progress.Fraction)
	m.setStatus(snap.Status)
}

// RecordSubmitFailure counts a record the sink failed to save
func (m *Metrics) RecordSubmitFailure(error) {
	m.RecordSubmitFailuresTotal.Inc()
}

// RecordHTTPRequest records an HTTP request metric
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func (m *Metrics) setStatus(current engine.Status) {
	for _, s := range []engine.Status{engine.StatusIdle, engine.StatusRunning, engine.StatusPaused, engine.StatusCompleted} {
		v := 0.0
		if s == current {
			v = 1
		}
		m.RunStatus.WithLabelValues(string(s)).Set(v)
	}
}
