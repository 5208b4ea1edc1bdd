// Package telemetry exposes Prometheus metrics for regexp analysis.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coregx/redoscheck"
	"github.com/coregx/redoscheck/analysis"
)

const namespace = "redoscheck"

// Metrics tracks analysis outcomes. It implements lint.Observer.
//
// Metrics:
//   - redoscheck_analyses_total: analyses by status, reason and memo hit
//   - redoscheck_analysis_duration_seconds: time spent per uncached analysis
//   - redoscheck_skipped_total: literals not analyzed (interpolated)
//   - redoscheck_files_scanned_total: files scanned by outcome
//   - redoscheck_http_requests_total: API requests by route and code
type Metrics struct {
	registry *prometheus.Registry

	analysesTotal    *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	skippedTotal     prometheus.Counter
	filesTotal       *prometheus.CounterVec
	requestsTotal    *prometheus.CounterVec
}

// New creates the metrics and registers them with a new registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		analysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Total number of regexp analyses",
			},
			[]string{"status", "reason", "cached"},
		),

		analysisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Duration of uncached regexp analyses in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 12), // 1µs to ~4s
			},
		),

		skippedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "skipped_total",
				Help:      "Total number of regexp literals skipped without analysis",
			},
		),

		filesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_scanned_total",
				Help:      "Total number of source files scanned",
			},
			[]string{"outcome"},
		),

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"route", "code"},
		),
	}

	m.registry.MustRegister(
		m.analysesTotal,
		m.analysisDuration,
		m.skippedTotal,
		m.filesTotal,
		m.requestsTotal,
	)
	return m
}

// Analyzed records one analysis result.
func (m *Metrics) Analyzed(res redoscheck.Result, elapsed time.Duration, cached bool) {
	c := "false"
	if cached {
		c = "true"
	} else {
		m.analysisDuration.Observe(elapsed.Seconds())
	}
	m.analysesTotal.WithLabelValues(res.Status.String(), reasonLabel(res), c).Inc()
}

// Skipped records a literal that was not analyzed.
func (m *Metrics) Skipped() {
	m.skippedTotal.Inc()
}

// FileScanned records a scanned file; outcome is "ok", "offenses" or "error".
func (m *Metrics) FileScanned(outcome string) {
	m.filesTotal.WithLabelValues(outcome).Inc()
}

// Request records an API request.
func (m *Metrics) Request(route string, code int) {
	m.requestsTotal.WithLabelValues(route, httpCode(code)).Inc()
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus exposition handler for the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

func reasonLabel(res redoscheck.Result) string {
	if res.Status != redoscheck.StatusNonLinear || res.Reason == analysis.ReasonNone {
		return ""
	}
	return res.Reason.String()
}

func httpCode(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	}
	return "2xx"
}
