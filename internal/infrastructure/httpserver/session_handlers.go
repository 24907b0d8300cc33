package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/contract-admin/internal/core/domain/session"
	"github.com/avatarctic/contract-admin/internal/core/domain/user"
	"github.com/avatarctic/contract-admin/internal/infrastructure/httpserver/helpers"
)

// sessionView is the session as the console sees it. The token stays server side.
type sessionView struct {
	User       user.User  `json:"user"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	LoggedInAt time.Time  `json:"loggedInAt"`
}

func toSessionView(s *session.Session) sessionView {
	return sessionView{User: s.User, ExpiresAt: s.ExpiresAt, LoggedInAt: s.LoggedInAt}
}

func (s *Server) login(c echo.Context) error {
	var req session.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	sess, err := s.sessions.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	s.resetFlows()
	return c.JSON(http.StatusOK, toSessionView(sess))
}

func (s *Server) logout(c echo.Context) error {
	if err := s.sessions.Logout(c.Request().Context()); err != nil {
		return err
	}
	s.resetFlows()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) me(c echo.Context) error {
	sess, err := helpers.GetSessionFromContext(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionView(sess))
}
