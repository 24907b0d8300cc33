package ports

import (
	"context"
	"errors"

	"github.com/avatarctic/contract-admin/internal/core/domain/session"
)

var (
	// ErrNoSession is returned by SessionStore.Load when nobody is logged in.
	ErrNoSession = errors.New("no session stored")
	// ErrUnauthenticated means the caller must go through login first.
	ErrUnauthenticated = errors.New("authentication required")
)

// SessionStore is durable client-side storage holding at most one session.
type SessionStore interface {
	Load(ctx context.Context) (*session.Session, error)
	Save(ctx context.Context, s *session.Session) error
	Clear(ctx context.Context) error
}

// SessionService owns the process-wide session: read once at startup,
// replaced on login, dropped on logout.
type SessionService interface {
	Init(ctx context.Context) (*session.Session, error)
	Current() *session.Session
	Require() (*session.Session, error)
	Login(ctx context.Context, req session.LoginRequest) (*session.Session, error)
	Logout(ctx context.Context) error
	// Token returns the bearer token of the current session, or "".
	Token(ctx context.Context) (string, error)
}
