package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avatarctic/contract-admin/internal/core/domain/session"
	"github.com/avatarctic/contract-admin/internal/core/ports"
)

// APICall records one request made through APIClientMock.
type APICall struct {
	Method string
	Path   string
	Body   any
	Config *ports.RequestConfig
}

// APIClientMock is a lightweight mock for ports.APIClient. Unset functions
// answer with an empty 200 response.
type APIClientMock struct {
	GetFn    func(ctx context.Context, path string, cfg *ports.RequestConfig) (*ports.Response, error)
	PostFn   func(ctx context.Context, path string, body any, cfg *ports.RequestConfig) (*ports.Response, error)
	PutFn    func(ctx context.Context, path string, body any, cfg *ports.RequestConfig) (*ports.Response, error)
	PatchFn  func(ctx context.Context, path string, body any, cfg *ports.RequestConfig) (*ports.Response, error)
	DeleteFn func(ctx context.Context, path string, cfg *ports.RequestConfig) (*ports.Response, error)
	BaseURL  string

	mu    sync.Mutex
	calls []APICall
}

var _ ports.APIClient = (*APIClientMock)(nil)

func (m *APIClientMock) record(method, path string, body any, cfg *ports.RequestConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, APICall{Method: method, Path: path, Body: body, Config: cfg})
}

// Calls returns the requests made so far.
func (m *APIClientMock) Calls() []APICall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]APICall(nil), m.calls...)
}

// CallCount returns how many requests hit method and path.
func (m *APIClientMock) CallCount(method, path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

func (m *APIClientMock) Get(ctx context.Context, path string, cfg *ports.RequestConfig) (*ports.Response, error) {
	m.record("GET", path, nil, cfg)
	if m.GetFn != nil {
		return m.GetFn(ctx, path, cfg)
	}
	return &ports.Response{StatusCode: 200}, nil
}

func (m *APIClientMock) Post(ctx context.Context, path string, body any, cfg *ports.RequestConfig) (*ports.Response, error) {
	m.record("POST", path, body, cfg)
	if m.PostFn != nil {
		return m.PostFn(ctx, path, body, cfg)
	}
	return &ports.Response{StatusCode: 200}, nil
}

func (m *APIClientMock) Put(ctx context.Context, path string, body any, cfg *ports.RequestConfig) (*ports.Response, error) {
	m.record("PUT", path, body, cfg)
	if m.PutFn != nil {
		return m.PutFn(ctx, path, body, cfg)
	}
	return &ports.Response{StatusCode: 200}, nil
}

func (m *APIClientMock) Patch(ctx context.Context, path string, body any, cfg *ports.RequestConfig) (*ports.Response, error) {
	m.record("PATCH", path, body, cfg)
	if m.PatchFn != nil {
		return m.PatchFn(ctx, path, body, cfg)
	}
	return &ports.Response{StatusCode: 200}, nil
}

func (m *APIClientMock) Delete(ctx context.Context, path string, cfg *ports.RequestConfig) (*ports.Response, error) {
	m.record("DELETE", path, nil, cfg)
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, path, cfg)
	}
	return &ports.Response{StatusCode: 204}, nil
}

func (m *APIClientMock) AssetURL(path string) string {
	return m.BaseURL + path
}

// CacheMock is an in-memory ports.Cache.
type CacheMock struct {
	GetFn func(ctx context.Context, key string) ([]byte, bool, error)

	mu   sync.Mutex
	data map[string][]byte
}

var _ ports.Cache = (*CacheMock)(nil)

func (m *CacheMock) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	return b, ok, nil
}

func (m *CacheMock) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = value
	return nil
}

func (m *CacheMock) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Has reports whether key is stored.
func (m *CacheMock) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// SessionStoreMock is an in-memory ports.SessionStore.
type SessionStoreMock struct {
	LoadFn  func(ctx context.Context) (*session.Session, error)
	SaveFn  func(ctx context.Context, s *session.Session) error
	ClearFn func(ctx context.Context) error

	mu      sync.Mutex
	current *session.Session
	Cleared int
}

var _ ports.SessionStore = (*SessionStoreMock)(nil)

// NewSessionStoreMock returns a store holding s (which may be nil).
func NewSessionStoreMock(s *session.Session) *SessionStoreMock {
	return &SessionStoreMock{current: s}
}

func (m *SessionStoreMock) Load(ctx context.Context) (*session.Session, error) {
	if m.LoadFn != nil {
		return m.LoadFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ports.ErrNoSession
	}
	cp := *m.current
	return &cp, nil
}

func (m *SessionStoreMock) Save(ctx context.Context, s *session.Session) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, s)
	}
	if s == nil {
		return fmt.Errorf("session is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.current = &cp
	return nil
}

func (m *SessionStoreMock) Clear(ctx context.Context) error {
	if m.ClearFn != nil {
		return m.ClearFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	m.Cleared++
	return nil
}

// Stored returns the stored session, or nil.
func (m *SessionStoreMock) Stored() *session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// SessionServiceMock is a lightweight mock for ports.SessionService. The
// session in Session is returned by Current and Require; nil means logged out.
type SessionServiceMock struct {
	Session  *session.Session
	LoginFn  func(ctx context.Context, req session.LoginRequest) (*session.Session, error)
	LogoutFn func(ctx context.Context) error
}

var _ ports.SessionService = (*SessionServiceMock)(nil)

func (m *SessionServiceMock) Init(ctx context.Context) (*session.Session, error) {
	return m.Session, nil
}

func (m *SessionServiceMock) Current() *session.Session { return m.Session }

func (m *SessionServiceMock) Require() (*session.Session, error) {
	if m.Session == nil {
		return nil, ports.ErrUnauthenticated
	}
	return m.Session, nil
}

func (m *SessionServiceMock) Login(ctx context.Context, req session.LoginRequest) (*session.Session, error) {
	if m.LoginFn != nil {
		return m.LoginFn(ctx, req)
	}
	return m.Session, nil
}

func (m *SessionServiceMock) Logout(ctx context.Context) error {
	if m.LogoutFn != nil {
		return m.LogoutFn(ctx)
	}
	m.Session = nil
	return nil
}

func (m *SessionServiceMock) Token(ctx context.Context) (string, error) {
	if m.Session == nil {
		return "", nil
	}
	return m.Session.Token, nil
}
