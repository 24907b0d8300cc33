package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/avatarctic/contract-admin/internal/core/ports"
)

// QueryMetrics exports query-store events to Prometheus.
type QueryMetrics struct {
	lookups       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	retries       *prometheus.CounterVec
	invalidations *prometheus.CounterVec
	evictions     *prometheus.CounterVec
}

var _ ports.QueryMetrics = (*QueryMetrics)(nil)

// NewQueryMetrics creates the collectors and registers them with reg.
func NewQueryMetrics(reg prometheus.Registerer) (*QueryMetrics, error) {
	m := &QueryMetrics{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "query_cache_lookups_total",
				Help: "Query cache reads by resource and result (hit or miss)",
			},
			[]string{"resource", "result"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "query_fetch_duration_seconds",
				Help:    "Duration of query fetches including retries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"resource", "outcome"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "query_fetch_retries_total",
				Help: "Automatic retries of failed query fetches",
			},
			[]string{"resource"},
		),
		invalidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "query_cache_invalidations_total",
				Help: "Query cache entries invalidated",
			},
			[]string{"resource"},
		),
		evictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "query_cache_evictions_total",
				Help: "Unobserved query cache entries reclaimed",
			},
			[]string{"resource"},
		),
	}

	for _, c := range []prometheus.Collector{m.lookups, m.fetchDuration, m.retries, m.invalidations, m.evictions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *QueryMetrics) Hit(resource string)  { m.lookups.WithLabelValues(resource, "hit").Inc() }
func (m *QueryMetrics) Miss(resource string) { m.lookups.WithLabelValues(resource, "miss").Inc() }

func (m *QueryMetrics) Fetch(resource, outcome string, d time.Duration) {
	m.fetchDuration.WithLabelValues(resource, outcome).Observe(d.Seconds())
}

func (m *QueryMetrics) Retry(resource string)      { m.retries.WithLabelValues(resource).Inc() }
func (m *QueryMetrics) Invalidate(resource string) { m.invalidations.WithLabelValues(resource).Inc() }
func (m *QueryMetrics) Evict(resource string)      { m.evictions.WithLabelValues(resource).Inc() }
