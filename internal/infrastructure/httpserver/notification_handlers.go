package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/contract-admin/internal/core/domain/notification"
	"github.com/avatarctic/contract-admin/internal/infrastructure/httpserver/helpers"
)

// Notification routes always act on the logged in user.

func (s *Server) listNotifications(c echo.Context) error {
	sess, err := helpers.GetSessionFromContext(c)
	if err != nil {
		return err
	}
	page, limit, err := helpers.Pagination(c)
	if err != nil {
		return err
	}
	out, err := s.res.Notifications.List(c.Request().Context(), notification.ListParams{
		UserID: sess.User.ID,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) unreadCount(c echo.Context) error {
	sess, err := helpers.GetSessionFromContext(c)
	if err != nil {
		return err
	}
	out, err := s.res.Notifications.UnreadCount(c.Request().Context(), sess.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) markNotificationRead(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	if _, err := s.res.Notifications.MarkRead.Mutate(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) markAllNotificationsRead(c echo.Context) error {
	sess, err := helpers.GetSessionFromContext(c)
	if err != nil {
		return err
	}
	if _, err := s.res.Notifications.MarkAllRead.Mutate(c.Request().Context(), sess.User.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
