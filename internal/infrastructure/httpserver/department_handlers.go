package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/contract-admin/internal/application/resources"
	"github.com/avatarctic/contract-admin/internal/core/domain/department"
	"github.com/avatarctic/contract-admin/internal/infrastructure/httpserver/helpers"
)

func (s *Server) listDepartments(c echo.Context) error {
	page, limit, err := helpers.Pagination(c)
	if err != nil {
		return err
	}
	out, err := s.res.Departments.List(c.Request().Context(), department.ListParams{
		Page:   page,
		Limit:  limit,
		Search: c.QueryParam("search"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getDepartment(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	d, err := s.res.Departments.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (s *Server) departmentMembers(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	members, err := s.res.Departments.Members(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, members)
}

func (s *Server) createDepartment(c echo.Context) error {
	var req department.CreateDepartmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	created, err := s.res.Departments.Create.Mutate(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) updateDepartment(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req department.UpdateDepartmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	updated, err := s.res.Departments.Update.Mutate(c.Request().Context(), resources.Change[department.UpdateDepartmentRequest]{ID: id, Body: req})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteDepartment(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	if _, err := s.res.Departments.Delete.Mutate(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
