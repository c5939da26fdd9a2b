package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var defaultDurationBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// PrometheusBackend is a Publisher backed by a private prometheus.Registry,
// scraped over its own Handler rather than the default global registry.
//
// Grounded on the teacher's PrometheusMetrics/InitPrometheus in
// internal/metrics/prometheus.go, retargeted from VM/pool/autoscaler
// collectors to the three CloudFormation handler metrics.
type PrometheusBackend struct {
	registry *prometheus.Registry

	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	exceptions  *prometheus.CounterVec
}

// NewPrometheusBackend builds a PrometheusBackend with its own registry.
// buckets, in milliseconds, defaults to defaultDurationBuckets when nil.
func NewPrometheusBackend(buckets []float64) *PrometheusBackend {
	if len(buckets) == 0 {
		buckets = defaultDurationBuckets
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	b := &PrometheusBackend{
		registry: registry,
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "handler_invocation_count_total",
				Help: "Count of resource handler invocations.",
			},
			[]string{"action_type", "resource_type"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "handler_invocation_duration_milliseconds",
				Help:    "Resource handler invocation duration in milliseconds.",
				Buckets: buckets,
			},
			[]string{"action_type", "resource_type"},
		),
		exceptions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "handler_exception_count_total",
				Help: "Count of exceptions raised by a handler invocation or its log delivery.",
			},
			[]string{"action_type", "exception_type", "resource_type"},
		),
	}

	registry.MustRegister(b.invocations, b.duration, b.exceptions)
	return b
}

func (b *PrometheusBackend) PublishInvocationCount(_ context.Context, resourceType, actionType string) error {
	b.invocations.WithLabelValues(actionType, resourceType).Inc()
	return nil
}

func (b *PrometheusBackend) PublishInvocationDuration(_ context.Context, resourceType, actionType string, duration time.Duration) error {
	b.duration.WithLabelValues(actionType, resourceType).Observe(float64(duration.Milliseconds()))
	return nil
}

func (b *PrometheusBackend) PublishException(_ context.Context, resourceType, actionType, exceptionType string) error {
	b.exceptions.WithLabelValues(actionType, exceptionType, resourceType).Inc()
	return nil
}

// Handler exposes the backend's private registry for scraping.
func (b *PrometheusBackend) Handler() http.Handler {
	return promhttp.HandlerFor(b.registry, promhttp.HandlerOpts{})
}
