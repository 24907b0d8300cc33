package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type LoggingMiddleware struct {
	logger *logrus.Logger
}

func NewLoggingMiddleware(logger *logrus.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

// RequestLogging writes one structured line per request once it completes.
// Handler errors are rendered here so the logged status is the one sent.
func (m *LoggingMiddleware) RequestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			if m.logger == nil {
				return nil
			}

			status := c.Response().Status
			entry := m.logger.WithFields(logrus.Fields{
				"method":     c.Request().Method,
				"path":       c.Path(),
				"status":     status,
				"duration":   time.Since(start).String(),
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			})
			switch {
			case status >= 500:
				entry.WithError(err).Error("request failed")
			case status >= 400:
				entry.Info("request rejected")
			default:
				entry.Debug("request served")
			}
			return nil
		}
	}
}
