package ports

import "time"

// QueryMetrics receives query-store lifecycle events, labelled by resource name.
type QueryMetrics interface {
	Hit(resource string)
	Miss(resource string)
	Fetch(resource string, outcome string, d time.Duration)
	Retry(resource string)
	Invalidate(resource string)
	Evict(resource string)
}

// NoopQueryMetrics discards every event.
type NoopQueryMetrics struct{}

func (NoopQueryMetrics) Hit(string)                          {}
func (NoopQueryMetrics) Miss(string)                         {}
func (NoopQueryMetrics) Fetch(string, string, time.Duration) {}
func (NoopQueryMetrics) Retry(string)                        {}
func (NoopQueryMetrics) Invalidate(string)                   {}
func (NoopQueryMetrics) Evict(string)                        {}
