package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

const apiPrefix = "/api/v1/"

// MetricsMiddleware records gateway traffic per API resource.
type MetricsMiddleware struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	openStreams     *prometheus.GaugeVec
}

// NewMetricsMiddleware creates a new metrics middleware instance. openStreams may be nil.
func NewMetricsMiddleware(requestsTotal *prometheus.CounterVec, requestDuration *prometheus.HistogramVec, openStreams *prometheus.GaugeVec) *MetricsMiddleware {
	return &MetricsMiddleware{
		requestsTotal:   requestsTotal,
		requestDuration: requestDuration,
		openStreams:     openStreams,
	}
}

// CollectHTTPMetrics counts requests by method, resource and rendered
// status. Event streams are tracked as open connections instead of
// latencies.
func (m *MetricsMiddleware) CollectHTTPMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			resource := routeResource(route)
			stream := strings.HasSuffix(route, "/stream")
			if stream && m.openStreams != nil {
				g := m.openStreams.WithLabelValues(resource)
				g.Inc()
				defer g.Dec()
			}

			start := time.Now()
			err := next(c)

			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)
			m.requestsTotal.WithLabelValues(method, resource, status).Inc()
			if !stream {
				m.requestDuration.WithLabelValues(method, resource).Observe(time.Since(start).Seconds())
			}
			return err
		}
	}
}

// routeResource names the resource a route serves: the first segment after
// the API prefix, or the first segment of an operational route.
func routeResource(route string) string {
	route = strings.TrimPrefix(route, apiPrefix)
	route = strings.TrimPrefix(route, "/")
	if i := strings.IndexByte(route, '/'); i >= 0 {
		route = route[:i]
	}
	if route == "" {
		return "unmatched"
	}
	return route
}
