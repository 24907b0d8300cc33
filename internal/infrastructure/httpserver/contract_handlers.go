package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/contract-admin/internal/application/resources"
	"github.com/avatarctic/contract-admin/internal/core/domain/attachment"
	"github.com/avatarctic/contract-admin/internal/core/domain/contract"
	"github.com/avatarctic/contract-admin/internal/infrastructure/httpserver/helpers"
)

func (s *Server) listContracts(c echo.Context) error {
	page, limit, err := helpers.Pagination(c)
	if err != nil {
		return err
	}
	deptID, err := helpers.QueryOptInt(c, "departmentId")
	if err != nil {
		return err
	}

	out, err := s.res.Contracts.List(c.Request().Context(), contract.ListParams{
		Page:         page,
		Limit:        limit,
		Status:       contract.Status(c.QueryParam("status")),
		Search:       c.QueryParam("search"),
		DepartmentID: deptID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// contractView adds what the detail screen needs to offer the sign action.
type contractView struct {
	contract.Contract
	Signable bool `json:"signable"`
}

func (s *Server) getContract(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	ct, err := s.res.Contracts.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contractView{Contract: ct, Signable: ct.IsSignable()})
}

func (s *Server) createContract(c echo.Context) error {
	var req contract.CreateContractRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	created, err := s.res.Contracts.Create.Mutate(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) updateContract(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req contract.UpdateContractRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	updated, err := s.res.Contracts.Update.Mutate(c.Request().Context(), resources.Change[contract.UpdateContractRequest]{ID: id, Body: req})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteContract(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	if _, err := s.res.Contracts.Delete.Mutate(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) contractPDFURL(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"url": s.res.Contracts.PDFURL(id)})
}

func (s *Server) contractSignatures(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	sigs, err := s.res.Signatures.ByContract(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sigs)
}

func (s *Server) contractApprovals(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	steps, err := s.res.Approvals.ByContract(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, steps)
}

func (s *Server) contractAttachments(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	files, err := s.res.Attachments.ByContract(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, files)
}

func (s *Server) uploadAttachment(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	file, ok, err := helpers.ReadFormFile(c, "file")
	if err != nil {
		return err
	}
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}

	created, err := s.res.Attachments.Upload.Mutate(c.Request().Context(), attachment.UploadRequest{
		ContractID:  id,
		FileName:    file.Name,
		ContentType: file.ContentType,
		Data:        file.Data,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) deleteAttachment(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	if _, err := s.res.Attachments.Delete.Mutate(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
