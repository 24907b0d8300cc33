package httpserver

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4/middleware"

	"github.com/avatarctic/contract-admin/internal/infrastructure/httpserver/helpers"
)

// bodyLimit leaves room for multipart framing around the largest upload.
var bodyLimit = fmt.Sprintf("%dK", helpers.MaxUploadSize>>10+1024)

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	s.echo.Use(s.middleware.Metrics.CollectHTTPMetrics())
	s.echo.Use(s.middleware.Logging.RequestLogging())
	s.echo.Use(middleware.BodyLimit(bodyLimit))
}
