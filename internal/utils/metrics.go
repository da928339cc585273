package utils

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Tracks request metrics across the API
type MetricsCollector struct {
	registry *prometheus.Registry

	requestCount prometheus.Counter
	errorCount   prometheus.Counter

	// Operation name -> latency in seconds
	operationTimes *prometheus.HistogramVec

	systemStartTime time.Time
}

func NewMetricsCollector() *MetricsCollector {
	mc := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vidshare",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests handled.",
		}),
		errorCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vidshare",
			Name:      "http_errors_total",
			Help:      "HTTP requests answered with a 5xx status.",
		}),
		operationTimes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vidshare",
			Name:      "operation_duration_seconds",
			Help:      "Latency of handled operations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		systemStartTime: time.Now(),
	}
	mc.registry.MustRegister(mc.requestCount, mc.errorCount, mc.operationTimes)
	return mc
}

// Registry exposes the collector's registry for the /metrics handler.
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

func (mc *MetricsCollector) IncrementRequests() {
	mc.requestCount.Inc()
}

func (mc *MetricsCollector) IncrementErrors() {
	mc.errorCount.Inc()
}

func (mc *MetricsCollector) AddOperationLatency(operationName string, duration time.Duration) {
	mc.operationTimes.WithLabelValues(operationName).Observe(duration.Seconds())
}

func (mc *MetricsCollector) Uptime() time.Duration {
	return time.Since(mc.systemStartTime)
}
