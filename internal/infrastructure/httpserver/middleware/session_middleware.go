package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/contract-admin/internal/core/ports"
	"github.com/avatarctic/contract-admin/internal/infrastructure/httpserver/helpers"
)

type SessionMiddleware struct {
	sessions ports.SessionService
	logger   *logrus.Logger
}

func NewSessionMiddleware(sessions ports.SessionService, logger *logrus.Logger) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, logger: logger}
}

// RequireSession rejects requests while nobody is logged in and puts the
// current session in the request context otherwise.
func (m *SessionMiddleware) RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := m.sessions.Require()
			if err != nil {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"ip": c.RealIP(), "path": c.Request().URL.Path}).Debug("request without session")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			helpers.SetSession(c, sess)
			return next(c)
		}
	}
}
