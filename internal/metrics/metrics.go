package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RequestsTotal       *prometheus.CounterVec
	RequestSeconds      *prometheus.HistogramVec
	CorrelationFailures prometheus.Counter
	CacheTrims          prometheus.Counter
	BusyWorkers         prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "anchor_requests_total",
			Help: "Total number of handled requests by action and status code.",
		}, []string{"action", "status"}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "anchor_request_duration_seconds",
			Help:    "Duration of request handling by action.",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
		CorrelationFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "anchor_correlation_failures_total",
			Help: "Total number of locations that failed to correlate.",
		}),
		CacheTrims: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "anchor_tile_cache_trims_total",
			Help: "Total number of tile cache trims during cleanup.",
		}),
		BusyWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "anchor_busy_workers",
			Help: "Current number of workers processing a job.",
		}),
	}
}
