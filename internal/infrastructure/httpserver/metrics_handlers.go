package httpserver

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_requests_total",
			Help: "Console gateway requests by API resource and rendered status",
		},
		[]string{"method", "resource", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "console_request_duration_seconds",
			Help:    "Console gateway latencies by API resource, event streams excluded",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "resource"},
	)

	openStreams = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "console_open_streams",
			Help: "Server-sent event streams currently held open, by resource",
		},
		[]string{"resource"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration, openStreams)
}

func GetRequestsTotal() *prometheus.CounterVec { return requestsTotal }

func GetRequestDuration() *prometheus.HistogramVec { return requestDuration }

func GetOpenStreams() *prometheus.GaugeVec { return openStreams }

// LogMetricsInitialization logs the metric families the gateway exposes
func (s *Server) LogMetricsInitialization() {
	if s.logger == nil {
		return
	}
	s.logger.WithFields(logrus.Fields{
		"console_requests_total":       "method, resource, status",
		"console_open_streams":         "resource",
		"query_cache_lookups_total":    "resource, result",
		"query_fetch_duration_seconds": "resource, outcome",
		"metrics_endpoint":             "/metrics",
	}).Debug("Available Prometheus metrics")
}

// metricsEndpoint serves every registered collector, the query store's
// included.
func (s *Server) metricsEndpoint(c echo.Context) error {
	promhttp.Handler().ServeHTTP(c.Response(), c.Request())
	return nil
}
