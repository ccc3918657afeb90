// Package metrics holds the Prometheus collectors shared by the adapters and
// the HTTP gateway.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace and component label shared by every pbadmin collector.
const (
	MetricNamespace = "pbadmin"
	MetricComponent = "gateway"
)

// MetricPrometheusLabels are the const labels attached to every collector.
var MetricPrometheusLabels = prometheus.Labels{"component": MetricComponent}

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics is the set of collectors. A nil *Metrics records nothing.
type Metrics struct {
	Operations   *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
	HTTPRequests *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   MetricNamespace,
			ConstLabels: MetricPrometheusLabels,
			Name:        "operations_total",
			Help:        "Data provider and auth operations by result.",
		}, []string{"op", "result"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   MetricNamespace,
			ConstLabels: MetricPrometheusLabels,
			Name:        "operation_duration_seconds",
			Help:        "Latency of data provider and auth operations.",
			Buckets:     prometheus.DefBuckets,
		}, []string{"op"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   MetricNamespace,
			ConstLabels: MetricPrometheusLabels,
			Name:        "http_requests_total",
			Help:        "Gateway HTTP requests by method and status.",
		}, []string{"method", "status"}),
	}
	reg.MustRegister(m.Operations, m.Duration, m.HTTPRequests)
	return m
}

// Observe records one finished operation.
func (m *Metrics) Observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.Operations.WithLabelValues(op, result).Inc()
	m.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// ObserveHTTP counts one gateway response.
func (m *Metrics) ObserveHTTP(method, status string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, status).Inc()
}
