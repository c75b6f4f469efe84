package grpc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GRPCMetrics collects request-count and latency histograms for the gRPC
// transport, labeled by service, method, and status code.
type GRPCMetrics struct {
	unaryTotal    *prometheus.CounterVec
	unaryDuration *prometheus.HistogramVec

	streamTotal    *prometheus.CounterVec
	streamDuration *prometheus.HistogramVec
}

// NewGRPCMetrics registers and returns a GRPCMetrics collector against reg.
// Pass prometheus.DefaultRegisterer for the global registry.
func NewGRPCMetrics(reg prometheus.Registerer) *GRPCMetrics {
	m := &GRPCMetrics{
		unaryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mfa",
			Subsystem: "grpc",
			Name:      "unary_requests_total",
			Help:      "Total number of unary gRPC requests processed.",
		}, []string{"service", "method", "code"}),
		unaryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mfa",
			Subsystem: "grpc",
			Name:      "unary_request_duration_seconds",
			Help:      "Unary gRPC request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "method", "code"}),
		streamTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mfa",
			Subsystem: "grpc",
			Name:      "stream_requests_total",
			Help:      "Total number of streaming gRPC requests processed.",
		}, []string{"service", "method", "code"}),
		streamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mfa",
			Subsystem: "grpc",
			Name:      "stream_request_duration_seconds",
			Help:      "Streaming gRPC request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "method", "code"}),
	}

	reg.MustRegister(m.unaryTotal, m.unaryDuration, m.streamTotal, m.streamDuration)
	return m
}

// RecordUnaryRequest records one completed unary RPC.
func (m *GRPCMetrics) RecordUnaryRequest(service, method, code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.unaryTotal.WithLabelValues(service, method, code).Inc()
	m.unaryDuration.WithLabelValues(service, method, code).Observe(duration.Seconds())
}

// RecordStreamRequest records one completed streaming RPC.
func (m *GRPCMetrics) RecordStreamRequest(service, method, code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.streamTotal.WithLabelValues(service, method, code).Inc()
	m.streamDuration.WithLabelValues(service, method, code).Observe(duration.Seconds())
}
