package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/contract-admin/internal/application/signing"
	"github.com/avatarctic/contract-admin/internal/core/domain/apierr"
	"github.com/avatarctic/contract-admin/internal/core/ports"
)

// toHTTPError maps data-layer errors onto gateway responses. API errors keep
// the API's status and message.
func toHTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	var apiErr *apierr.HTTPError
	var transportErr *apierr.TransportError
	switch {
	case apierr.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, apierr.UserMessage(err))
	case errors.Is(err, ports.ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	case errors.Is(err, signing.ErrOTPNotRequested), errors.Is(err, signing.ErrAlreadySigned),
		errors.Is(err, signing.ErrStepPending):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.As(err, &apiErr):
		return echo.NewHTTPError(apiErr.StatusCode, apierr.UserMessage(err))
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "upstream API timed out")
	case errors.As(err, &transportErr):
		return echo.NewHTTPError(http.StatusBadGateway, "upstream API unreachable")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he := toHTTPError(err)
	msg := he.Message
	if m, ok := msg.(string); ok {
		msg = map[string]string{"message": m}
	}
	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(he.Code)
	} else {
		werr = c.JSON(he.Code, msg)
	}
	if werr != nil {
		s.logger.WithError(werr).Warn("failed to write error response")
	}
}
