package helpers

import (
	"github.com/labstack/echo/v4"

	"github.com/avatarctic/contract-admin/internal/core/domain/session"
)

type ctxKey string

const (
	keySession ctxKey = "session"
)

func SetSession(c echo.Context, s *session.Session) { c.Set(string(keySession), s) }
func GetSessionRaw(c echo.Context) (*session.Session, bool) {
	v := c.Get(string(keySession))
	s, ok := v.(*session.Session)
	return s, ok
}
