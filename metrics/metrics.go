// Package metrics exposes Prometheus collectors for cache and ref resolution
// activity. A nil *Recorder is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache operations.
const (
	OpClone   = "clone"
	OpFetch   = "fetch"
	OpRebuild = "rebuild"
	OpRemove  = "remove"
	OpPrune   = "prune"
)

// Resolution outcomes.
const (
	OutcomeFound  = "found"
	OutcomeAbsent = "absent"
)

// Recorder holds the collectors.
type Recorder struct {
	cacheOps      *prometheus.CounterVec
	cacheFailures *prometheus.CounterVec
	resolutions   *prometheus.CounterVec
	lockWait      prometheus.Histogram
}

// New creates the collectors and registers them with reg. A nil reg skips
// registration, which keeps tests independent of the default registry.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		cacheOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gitsource_cache_operations_total",
				Help: "Completed repository cache operations.",
			},
			[]string{"operation"},
		),
		cacheFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gitsource_cache_failures_total",
				Help: "Failed repository cache operations.",
			},
			[]string{"operation"},
		),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gitsource_ref_resolutions_total",
				Help: "Branch head lookups by resolver and outcome.",
			},
			[]string{"resolver", "outcome"},
		),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gitsource_cache_lock_wait_seconds",
			Help:    "Time spent waiting for a cache entry lock.",
			Buckets: []float64{.001, .01, .1, .5, 1, 5, 30, 60, 300, 900},
		}),
	}
	if reg != nil {
		reg.MustRegister(r.cacheOps, r.cacheFailures, r.resolutions, r.lockWait)
	}
	return r
}

// CacheOp counts a successful cache operation.
func (r *Recorder) CacheOp(op string) {
	if r == nil {
		return
	}
	r.cacheOps.WithLabelValues(op).Inc()
}

// CacheFailure counts a failed cache operation.
func (r *Recorder) CacheFailure(op string) {
	if r == nil {
		return
	}
	r.cacheFailures.WithLabelValues(op).Inc()
}

// Resolution counts a ref lookup.
func (r *Recorder) Resolution(resolver string, found bool) {
	if r == nil {
		return
	}
	outcome := OutcomeAbsent
	if found {
		outcome = OutcomeFound
	}
	r.resolutions.WithLabelValues(resolver, outcome).Inc()
}

// LockWait observes how long a lock acquisition took.
func (r *Recorder) LockWait(d time.Duration) {
	if r == nil {
		return
	}
	r.lockWait.Observe(d.Seconds())
}

// Collectors returns every collector, for callers that register them on
// their own registry.
func (r *Recorder) Collectors() []prometheus.Collector {
	return []prometheus.Collector{r.cacheOps, r.cacheFailures, r.resolutions, r.lockWait}
}
