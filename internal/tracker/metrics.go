package tracker

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requestsTotal  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	retriesTotal   *prometheus.CounterVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tierboard",
			Subsystem: "tracker",
			Name:      "requests_total",
			Help:      "Total number of tracker API calls.",
		}, []string{"op", "result"}),
		requestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tierboard",
			Subsystem: "tracker",
			Name:      "request_latency_seconds",
			Help:      "Latency distribution for tracker API calls, retries included.",
			Buckets:   []float64{0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10},
		}, []string{"op"}),
		retriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tierboard",
			Subsystem: "tracker",
			Name:      "retries_total",
			Help:      "Total number of retried tracker calls.",
		}, []string{"op"}),
	}
})

// MetricsObserver records request events as Prometheus metrics.
type MetricsObserver struct {
	m *metrics
}

// NewMetricsObserver returns an Observer backed by the process-wide
// tracker metrics.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{m: metricsSingleton()}
}

func (o *MetricsObserver) OnRequestComplete(_ context.Context, e RequestEvent) {
	result := "ok"
	if !e.Success {
		result = e.ErrorCode
	}
	o.m.requestsTotal.WithLabelValues(e.Op, result).Inc()
	o.m.requestLatency.WithLabelValues(e.Op).Observe(float64(e.LatencyMs) / 1000)
	if e.Attempts > 1 {
		o.m.retriesTotal.WithLabelValues(e.Op).Add(float64(e.Attempts - 1))
	}
}
