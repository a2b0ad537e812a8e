// Package metrics holds the Prometheus collectors exported by the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upload results recorded by RecordUpload.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Upload metrics
	UploadsTotal   *prometheus.CounterVec
	UploadBytes    prometheus.Histogram
	UploadDuration prometheus.Histogram
}

// New creates a Metrics instance registered on reg. A nil reg uses the
// default Prometheus registerer.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "wireframe"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		UploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upload",
				Name:      "total",
				Help:      "Total number of object storage uploads",
			},
			[]string{"result"},
		),
		UploadBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "upload",
				Name:      "size_bytes",
				Help:      "Size of uploaded objects in bytes",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 8), // 1KiB .. 16MiB
			},
		),
		UploadDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "upload",
				Name:      "duration_seconds",
				Help:      "Object storage PUT duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordUpload records the outcome of one storage write.
func (m *Metrics) RecordUpload(size int64, duration time.Duration, err error) {
	if err != nil {
		m.UploadsTotal.WithLabelValues(ResultFailure).Inc()
		return
	}
	m.UploadsTotal.WithLabelValues(ResultSuccess).Inc()
	if size >= 0 {
		m.UploadBytes.Observe(float64(size))
	}
	m.UploadDuration.Observe(duration.Seconds())
}
