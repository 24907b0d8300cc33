package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/contract-admin/internal/application/resources"
	"github.com/avatarctic/contract-admin/internal/core/domain/user"
	"github.com/avatarctic/contract-admin/internal/infrastructure/httpserver/helpers"
)

func (s *Server) listUsers(c echo.Context) error {
	page, limit, err := helpers.Pagination(c)
	if err != nil {
		return err
	}
	deptID, err := helpers.QueryOptInt(c, "departmentId")
	if err != nil {
		return err
	}

	out, err := s.res.Users.List(c.Request().Context(), user.ListParams{
		Page:         page,
		Limit:        limit,
		Search:       c.QueryParam("search"),
		DepartmentID: deptID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getUser(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	u, err := s.res.Users.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (s *Server) createUser(c echo.Context) error {
	var req user.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	created, err := s.res.Users.Create.Mutate(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) updateUser(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req user.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	updated, err := s.res.Users.Update.Mutate(c.Request().Context(), resources.Change[user.UpdateUserRequest]{ID: id, Body: req})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteUser(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	if _, err := s.res.Users.Delete.Mutate(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
