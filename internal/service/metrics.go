package service

import (
	"sync"
	"time"

	"github.com/alexanderramin/tierboard/internal/cache"
	"github.com/alexanderramin/tierboard/internal/hierarchy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records dashboard load outcomes. A nil *Metrics records nothing.
type Metrics struct {
	loadsTotal     *prometheus.CounterVec
	loadDuration   prometheus.Histogram
	cacheLookups   *prometheus.CounterVec
	brokenLinks    *prometheus.CounterVec
	branchFailures *prometheus.CounterVec
}

var metricsSingleton = sync.OnceValue(func() *Metrics {
	return &Metrics{
		loadsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tierboard",
			Subsystem: "dashboard",
			Name:      "loads_total",
			Help:      "Total number of dashboard loads by result.",
		}, []string{"result"}),
		loadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tierboard",
			Subsystem: "dashboard",
			Name:      "load_duration_seconds",
			Help:      "Wall time of a dashboard load, fan-out and tree build included.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		cacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tierboard",
			Subsystem: "dashboard",
			Name:      "cache_lookups_total",
			Help:      "Item cache lookups during dashboard loads.",
		}, []string{"result"}),
		brokenLinks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tierboard",
			Subsystem: "dashboard",
			Name:      "broken_links_total",
			Help:      "Items left out of a tree because their ancestry could not be resolved.",
		}, []string{"reason"}),
		branchFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tierboard",
			Subsystem: "dashboard",
			Name:      "branch_failures_total",
			Help:      "Listing branches that failed and were treated as empty.",
		}, []string{"branch"}),
	}
})

// NewMetrics returns the process-wide dashboard metrics.
func NewMetrics() *Metrics {
	return metricsSingleton()
}

func (m *Metrics) observeLoad(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.loadsTotal.WithLabelValues(result).Inc()
	m.loadDuration.Observe(d.Seconds())
}

func (m *Metrics) observeCache(s cache.Stats) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues("hit").Add(float64(s.Hits))
	m.cacheLookups.WithLabelValues("miss").Add(float64(s.Misses))
}

func (m *Metrics) observeBroken(links []hierarchy.BrokenLink) {
	if m == nil {
		return
	}
	for _, l := range links {
		m.brokenLinks.WithLabelValues(string(l.Reason)).Inc()
	}
}

func (m *Metrics) observeBranchFailure(branch string) {
	if m == nil {
		return
	}
	m.branchFailures.WithLabelValues(branch).Inc()
}
