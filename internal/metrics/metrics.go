// Package metrics exposes Prometheus instruments for the HTTP layer and sharing operations.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "report_hub"

// Metrics owns a private registry so tests can build as many as they like.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	dashboardShares  prometheus.Counter
	propagatedGrants prometheus.Counter
	grantsReplaced   prometheus.Counter
	accessDenied     *prometheus.CounterVec
	reportUploads    prometheus.Counter
	uploadBytes      prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		dashboardShares: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_shares_total",
			Help:      "Dashboards shared.",
		}),
		propagatedGrants: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "propagated_report_grants_total",
			Help:      "Viewer grants added to source reports when sharing dashboards.",
		}),
		grantsReplaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_grant_replacements_total",
			Help:      "Times the grants of a report were replaced.",
		}),
		accessDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_denied_total",
			Help:      "Operations refused by the permission engine.",
		}, []string{"resource"}),
		reportUploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_uploads_total",
			Help:      "Reports uploaded.",
		}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_upload_bytes_total",
			Help:      "Bytes of report files uploaded.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpInFlight,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.dashboardShares,
		m.propagatedGrants,
		m.grantsReplaced,
		m.accessDenied,
		m.reportUploads,
		m.uploadBytes,
	)
	return m
}

// Registry exposes the registry, mostly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RequestStarted() {
	if m == nil {
		return
	}
	m.httpInFlight.Inc()
}

// RequestFinished records a served request. route is the router pattern, not the raw path.
func (m *Metrics) RequestFinished(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpInFlight.Dec()
	m.httpRequestsTotal.WithLabelValues(method, route, code).Inc()
	m.httpRequestDuration.WithLabelValues(method, route, code).Observe(elapsed.Seconds())
}

func (m *Metrics) DashboardShared(propagated int) {
	if m == nil {
		return
	}
	m.dashboardShares.Inc()
	m.propagatedGrants.Add(float64(propagated))
}

func (m *Metrics) ReportGrantsReplaced() {
	if m == nil {
		return
	}
	m.grantsReplaced.Inc()
}

// AccessDenied counts a refusal for "report" or "dashboard"
func (m *Metrics) AccessDenied(resource string) {
	if m == nil {
		return
	}
	m.accessDenied.WithLabelValues(resource).Inc()
}

func (m *Metrics) ReportUploaded(size int64) {
	if m == nil {
		return
	}
	m.reportUploads.Inc()
	if size > 0 {
		m.uploadBytes.Add(float64(size))
	}
}
