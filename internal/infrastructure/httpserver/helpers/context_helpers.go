package helpers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/contract-admin/internal/core/domain/session"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// GetSessionFromContext returns the session set by the session middleware.
func GetSessionFromContext(c echo.Context) (*session.Session, error) {
	s, ok := GetSessionRaw(c)
	if !ok || s == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return s, nil
}

// ParseIDParam reads a numeric path parameter.
func ParseIDParam(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// QueryInt reads an integer query parameter, falling back to def when absent.
func QueryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return v, nil
}

// QueryOptInt reads an optional integer query parameter; absent is nil.
func QueryOptInt(c echo.Context, name string) (*int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &v, nil
}

// Pagination reads page and limit, defaulting to the first page of DefaultLimit.
func Pagination(c echo.Context) (page, limit int, err error) {
	if page, err = QueryInt(c, "page", DefaultPage); err != nil {
		return 0, 0, err
	}
	if limit, err = QueryInt(c, "limit", DefaultLimit); err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

// MaxUploadSize bounds a single uploaded file.
const MaxUploadSize = 20 << 20

// UploadedFile is a file read from a multipart request.
type UploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReadFormFile reads the multipart file named field. A missing file is not an
// error; ok reports whether one was sent.
func ReadFormFile(c echo.Context, field string) (f UploadedFile, ok bool, err error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return UploadedFile{}, false, nil
	}
	if err != nil {
		return UploadedFile{}, false, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form")
	}
	if fh.Size > MaxUploadSize {
		return UploadedFile{}, false, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}
	src, err := fh.Open()
	if err != nil {
		return UploadedFile{}, false, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, MaxUploadSize))
	if err != nil {
		return UploadedFile{}, false, fmt.Errorf("read upload: %w", err)
	}
	return UploadedFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Data:        data,
	}, true, nil
}
