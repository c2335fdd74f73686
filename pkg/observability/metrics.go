package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the gateway
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authorization decision metrics
	DecisionsTotal *prometheus.CounterVec

	// Session resolution metrics
	ResolutionsTotal   *prometheus.CounterVec
	ResolutionDuration prometheus.Histogram

	// Audit delivery metrics
	AuditDeliveriesTotal  *prometheus.CounterVec
	AuditDeliveryDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gatekeeper_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),

		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_decisions_total",
				Help: "Total number of authorization decisions by rule and action",
			},
			[]string{"rule", "action"},
		),

		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_session_resolutions_total",
				Help: "Total number of session resolution attempts by outcome",
			},
			[]string{"outcome"},
		),
		ResolutionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gatekeeper_session_resolution_duration_seconds",
				Help:    "Session resolution duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),

		AuditDeliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_audit_deliveries_total",
				Help: "Total number of audit event delivery attempts by outcome",
			},
			[]string{"outcome"},
		),
		AuditDeliveryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gatekeeper_audit_delivery_duration_seconds",
				Help:    "Audit event delivery duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DecisionsTotal,
		m.ResolutionsTotal,
		m.ResolutionDuration,
		m.AuditDeliveriesTotal,
		m.AuditDeliveryDuration,
	)

	return m
}

// Handler returns the HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDecision records an authorization decision
func (m *Metrics) ObserveDecision(rule, action string) {
	m.DecisionsTotal.WithLabelValues(rule, action).Inc()
}

// ObserveResolution records a session resolution attempt
func (m *Metrics) ObserveResolution(outcome string, duration time.Duration) {
	m.ResolutionsTotal.WithLabelValues(outcome).Inc()
	m.ResolutionDuration.Observe(duration.Seconds())
}

// ObserveAuditDelivery records an audit delivery attempt
func (m *Metrics) ObserveAuditDelivery(outcome string, duration time.Duration) {
	m.AuditDeliveriesTotal.WithLabelValues(outcome).Inc()
	m.AuditDeliveryDuration.Observe(duration.Seconds())
}

// ObserveHTTPRequest records an HTTP request
func (m *Metrics) ObserveHTTPRequest(method string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, statusLabel(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// statusLabel buckets status codes to keep label cardinality bounded
func statusLabel(status int) string {
	switch {
	case status < 200:
		return "1xx"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
