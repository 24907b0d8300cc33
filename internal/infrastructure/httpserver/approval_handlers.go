package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/contract-admin/internal/application/resources"
	"github.com/avatarctic/contract-admin/internal/core/domain/approval"
	"github.com/avatarctic/contract-admin/internal/infrastructure/httpserver/helpers"
)

// pendingApprovals lists the steps waiting on the logged in approver.
func (s *Server) pendingApprovals(c echo.Context) error {
	sess, err := helpers.GetSessionFromContext(c)
	if err != nil {
		return err
	}
	page, limit, err := helpers.Pagination(c)
	if err != nil {
		return err
	}
	out, err := s.res.Approvals.Pending(c.Request().Context(), approval.PendingParams{
		ApproverID: sess.User.ID,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) approveStep(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	step, err := s.res.Approvals.Approve.Mutate(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, step)
}

func (s *Server) rejectStep(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req approval.RejectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	step, err := s.res.Approvals.Reject.Mutate(c.Request().Context(), resources.Change[approval.RejectRequest]{ID: id, Body: req})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, step)
}
