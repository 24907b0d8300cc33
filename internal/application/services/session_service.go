package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/contract-admin/internal/core/domain/apierr"
	"github.com/avatarctic/contract-admin/internal/core/domain/session"
	"github.com/avatarctic/contract-admin/internal/core/ports"
	"github.com/avatarctic/contract-admin/internal/query"
)

const loginPath = "/auth/login"

type SessionService struct {
	store  ports.SessionStore
	api    ports.APIClient
	cache  *query.Store
	logger *logrus.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current *session.Session
}

func NewSessionService(store ports.SessionStore, api ports.APIClient, cache *query.Store, logger *logrus.Logger) ports.SessionService {
	return newSessionService(store, api, cache, logger, time.Now)
}

func newSessionService(store ports.SessionStore, api ports.APIClient, cache *query.Store, logger *logrus.Logger, now func() time.Time) *SessionService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SessionService{
		store:  store,
		api:    api,
		cache:  cache,
		logger: logger,
		now:    now,
	}
}

// Init reads the stored session. It is called once at startup; an expired
// session is removed and treated as absent.
func (s *SessionService) Init(ctx context.Context) (*session.Session, error) {
	stored, err := s.store.Load(ctx)
	if errors.Is(err, ports.ErrNoSession) {
		s.set(nil)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if stored.IsExpired(s.now()) {
		s.logger.WithField("user_id", stored.User.ID).Info("Stored session expired, clearing")
		if err := s.store.Clear(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear expired session: %w", err)
		}
		s.set(nil)
		return nil, nil
	}

	s.set(stored)
	s.logger.WithFields(logrus.Fields{"user_id": stored.User.ID, "email": stored.User.Email}).Info("Session restored")
	return copySession(stored), nil
}

// Current returns the active session, or nil when nobody is logged in.
func (s *SessionService) Current() *session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySession(s.current)
}

// Require returns the active session or ports.ErrUnauthenticated, the
// signal to redirect to the login screen.
func (s *SessionService) Require() (*session.Session, error) {
	cur := s.Current()
	if cur == nil || cur.IsExpired(s.now()) {
		return nil, ports.ErrUnauthenticated
	}
	return cur, nil
}

// Login authenticates against the API and persists the resulting session.
// Cached reads of the previous user are dropped; open observers refetch
// with the new session.
func (s *SessionService) Login(ctx context.Context, req session.LoginRequest) (*session.Session, error) {
	if strings.TrimSpace(req.Email) == "" {
		return nil, apierr.Invalid("email", "is required")
	}
	if req.Password == "" {
		return nil, apierr.Invalid("password", "is required")
	}

	resp, err := s.api.Post(ctx, loginPath, req, nil)
	if err != nil {
		s.logger.WithField("email", req.Email).WithError(err).Warn("Login failed")
		return nil, err
	}
	var out session.LoginResponse
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}

	sess := &session.Session{
		User:       out.User,
		Token:      out.AccessToken,
		ExpiresAt:  s.tokenExpiry(out.AccessToken),
		LoggedInAt: s.now().UTC(),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	s.set(sess)
	if s.cache != nil {
		s.cache.Clear()
	}

	s.logger.WithFields(logrus.Fields{"user_id": sess.User.ID, "email": sess.User.Email}).Info("User logged in")
	return copySession(sess), nil
}

// Logout drops the session from storage and memory together with every
// cached read.
func (s *SessionService) Logout(ctx context.Context) error {
	prev := s.Current()
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.set(nil)
	if s.cache != nil {
		s.cache.Clear()
	}
	if prev != nil {
		s.logger.WithField("user_id", prev.User.ID).Info("User logged out")
	}
	return nil
}

// Token returns the bearer token of the current session, or "".
func (s *SessionService) Token(ctx context.Context) (string, error) {
	cur, err := s.Require()
	if err != nil {
		return "", nil
	}
	return cur.Token, nil
}

// tokenExpiry reads the exp claim without verifying the signature; the API
// verifies tokens, the client only needs to know when to stop using one.
func (s *SessionService) tokenExpiry(token string) *time.Time {
	if token == "" {
		return nil
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		s.logger.WithError(err).Debug("Access token is not a JWT, session has no expiry")
		return nil
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	exp := claims.ExpiresAt.Time.UTC()
	return &exp
}

func (s *SessionService) set(sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = copySession(sess)
}

func copySession(s *session.Session) *session.Session {
	if s == nil {
		return nil
	}
	cp := *s
	if s.ExpiresAt != nil {
		exp := *s.ExpiresAt
		cp.ExpiresAt = &exp
	}
	return &cp
}
