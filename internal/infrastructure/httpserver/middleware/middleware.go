package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/contract-admin/internal/core/ports"
)

// MiddlewareCollection holds all middleware instances
type MiddlewareCollection struct {
	Session *SessionMiddleware
	Logging *LoggingMiddleware
	Metrics *MetricsMiddleware
}

// NewMiddlewareCollection creates a new collection of all middleware
func NewMiddlewareCollection(
	sessions ports.SessionService,
	logger *logrus.Logger,
	requestsTotal *prometheus.CounterVec,
	requestDuration *prometheus.HistogramVec,
	openStreams *prometheus.GaugeVec,
) *MiddlewareCollection {
	return &MiddlewareCollection{
		Session: NewSessionMiddleware(sessions, logger),
		Logging: NewLoggingMiddleware(logger),
		Metrics: NewMetricsMiddleware(requestsTotal, requestDuration, openStreams),
	}
}
