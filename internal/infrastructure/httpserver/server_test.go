package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/contract-admin/internal/application/resources"
	"github.com/avatarctic/contract-admin/internal/application/services"
	"github.com/avatarctic/contract-admin/internal/core/domain/apierr"
	"github.com/avatarctic/contract-admin/internal/core/domain/session"
	"github.com/avatarctic/contract-admin/internal/core/domain/signature"
	"github.com/avatarctic/contract-admin/internal/core/domain/user"
	"github.com/avatarctic/contract-admin/internal/core/ports"
	"github.com/avatarctic/contract-admin/internal/query"
	"github.com/avatarctic/contract-admin/test/mocks"
)

type fixture struct {
	srv      *Server
	api      *mocks.APIClientMock
	sessions *mocks.SessionStoreMock
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var ann = user.User{ID: 7, Email: "ann@example.com", FullName: "Ann"}

// newFixture builds a gateway over a mocked API. With loggedIn the stored
// session of ann is restored at startup.
func newFixture(t *testing.T, loggedIn bool, checkers ...ports.HealthChecker) *fixture {
	t.Helper()
	api := &mocks.APIClientMock{BaseURL: "http://api.test"}
	qs := query.New(query.WithRetry(0, 0), query.WithStaleTime(time.Minute))
	t.Cleanup(qs.Close)

	var stored *session.Session
	if loggedIn {
		stored = &session.Session{User: ann, Token: "tok"}
	}
	store := mocks.NewSessionStoreMock(stored)
	svc := services.NewSessionService(store, api, qs, quietLogger())
	_, err := svc.Init(context.Background())
	require.NoError(t, err)

	srv := NewServer(&ServerConfig{Host: "127.0.0.1", Port: "0"}, quietLogger(), ServerDeps{
		Sessions:       svc,
		Resources:      resources.New(api, qs, resources.WithPollInterval(0)),
		Store:          qs,
		HealthCheckers: checkers,
	})
	return &fixture{srv: srv, api: api, sessions: store}
}

func (f *fixture) do(t *testing.T, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.srv.Echo().ServeHTTP(rec, req)
	return rec
}

func (f *fixture) doJSON(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	return f.do(t, method, target, r, "application/json")
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func jsonResponse(body string) (*ports.Response, error) {
	return &ports.Response{StatusCode: 200, Body: []byte(body)}, nil
}

func multipartBody(t *testing.T, fields map[string]string, fileName string, data []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/api/v1/users", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "authentication required", decodeBody[map[string]string](t, rec)["message"])
	require.Empty(t, f.api.Calls())
}

func TestLoginThenMe(t *testing.T) {
	f := newFixture(t, false)
	f.api.PostFn = func(ctx context.Context, path string, body any, cfg *ports.RequestConfig) (*ports.Response, error) {
		require.Equal(t, "/auth/login", path)
		return jsonResponse(`{"user":{"id":7,"email":"ann@example.com"},"accessToken":"opaque"}`)
	}

	rec := f.doJSON(t, http.MethodPost, "/api/v1/auth/login", session.LoginRequest{Email: "ann@example.com", Password: "pw"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "opaque")
	require.Equal(t, "opaque", f.sessions.Stored().Token)

	rec = f.do(t, http.MethodGet, "/api/v1/auth/me", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 7, decodeBody[sessionView](t, rec).User.ID)
}

func TestLoginRejectedByAPI(t *testing.T) {
	f := newFixture(t, false)
	f.api.PostFn = func(ctx context.Context, path string, body any, cfg *ports.RequestConfig) (*ports.Response, error) {
		return nil, &apierr.HTTPError{StatusCode: 401, Message: "wrong password"}
	}

	rec := f.doJSON(t, http.MethodPost, "/api/v1/auth/login", session.LoginRequest{Email: "ann@example.com", Password: "bad"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "wrong password", decodeBody[map[string]string](t, rec)["message"])

	rec = f.doJSON(t, http.MethodPost, "/api/v1/auth/login", session.LoginRequest{Password: "pw"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutEndsSession(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/logout", nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Nil(t, f.sessions.Stored())

	rec = f.do(t, http.MethodGet, "/api/v1/auth/me", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListUsersForwardsFiltersAndCaches(t *testing.T) {
	f := newFixture(t, true)
	f.api.GetFn = func(ctx context.Context, path string, cfg *ports.RequestConfig) (*ports.Response, error) {
		require.Equal(t, "/users", path)
		require.Equal(t, "2", cfg.Query.Get("page"))
		require.Equal(t, "5", cfg.Query.Get("limit"))
		require.Equal(t, "ann", cfg.Query.Get("search"))
		require.Equal(t, "3", cfg.Query.Get("departmentId"))
		return jsonResponse(`{"items":[{"id":7}],"total":1,"page":2,"limit":5}`)
	}

	target := "/api/v1/users?page=2&limit=5&search=ann&departmentId=3"
	rec := f.do(t, http.MethodGet, target, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeBody[user.Page](t, rec)
	require.Len(t, page.Items, 1)

	rec = f.do(t, http.MethodGet, target, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, f.api.CallCount(http.MethodGet, "/users"))
}

func TestWriteInvalidatesCachedReads(t *testing.T) {
	f := newFixture(t, true)
	f.api.GetFn = func(ctx context.Context, path string, cfg *ports.RequestConfig) (*ports.Response, error) {
		return jsonResponse(`{"items":[],"total":0,"page":1,"limit":10}`)
	}
	f.api.PostFn = func(ctx context.Context, path string, body any, cfg *ports.RequestConfig) (*ports.Response, error) {
		return &ports.Response{StatusCode: 201, Body: []byte(`{"id":8,"email":"bo@example.com"}`)}, nil
	}

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/users", nil, "").Code)

	rec := f.doJSON(t, http.MethodPost, "/api/v1/users", user.CreateUserRequest{
		Email: "bo@example.com", Password: "secret1", FullName: "Bo", Role: user.RoleEmployee,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/users", nil, "").Code)
	require.Equal(t, 2, f.api.CallCount(http.MethodGet, "/users"))
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"api status and message", &apierr.HTTPError{StatusCode: 404, Message: "user not found"}, http.StatusNotFound, "user not found"},
		{"unreachable API", &apierr.TransportError{Method: "GET", Path: "/users/1", Err: errors.New("connection refused")}, http.StatusBadGateway, "upstream API unreachable"},
		{"API timeout", &apierr.TransportError{Method: "GET", Path: "/users/1", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, "upstream API timed out"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true)
			f.api.GetFn = func(ctx context.Context, path string, cfg *ports.RequestConfig) (*ports.Response, error) {
				return nil, tt.err
			}
			rec := f.do(t, http.MethodGet, "/api/v1/users/1", nil, "")
			require.Equal(t, tt.status, rec.Code)
			require.Equal(t, tt.msg, decodeBody[map[string]string](t, rec)["message"])
		})
	}
}

func TestInvalidParamsNeverReachAPI(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(t, http.MethodGet, "/api/v1/users?page=0", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeBody[map[string]string](t, rec)["message"], "page")

	rec = f.do(t, http.MethodGet, "/api/v1/users/abc", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/contracts?status=bogus", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.doJSON(t, http.MethodPost, "/api/v1/approvals/3/reject", map[string]string{"reason": " "})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	require.Empty(t, f.api.Calls())
}

func TestNotificationsActForLoggedInUser(t *testing.T) {
	f := newFixture(t, true)
	f.api.GetFn = func(ctx context.Context, path string, cfg *ports.RequestConfig) (*ports.Response, error) {
		require.Equal(t, "/notifications/unread-count", path)
		require.Equal(t, "7", cfg.Query.Get("userId"))
		return jsonResponse(`{"count":3}`)
	}

	rec := f.do(t, http.MethodGet, "/api/v1/notifications/unread-count", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"count":3}`, rec.Body.String())

	rec = f.do(t, http.MethodPatch, "/api/v1/notifications/read-all", nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	calls := f.api.Calls()
	last := calls[len(calls)-1]
	require.Equal(t, "/notifications/read-all", last.Path)
	require.Equal(t, map[string]int{"userId": 7}, last.Body)
}

func TestContractPDFURL(t *testing.T) {
	f := newFixture(t, true)
	rec := f.do(t, http.MethodGet, "/api/v1/contracts/42/pdf-url", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"url":"http://api.test/contracts/42/pdf"}`, rec.Body.String())
	require.Empty(t, f.api.Calls())
}

func TestUploadAttachment(t *testing.T) {
	f := newFixture(t, true)
	var form *ports.MultipartForm
	f.api.PostFn = func(ctx context.Context, path string, body any, cfg *ports.RequestConfig) (*ports.Response, error) {
		require.Equal(t, "/attachments", path)
		form = body.(*ports.MultipartForm)
		return &ports.Response{StatusCode: 201, Body: []byte(`{"id":5,"contractId":42,"fileName":"cv.pdf"}`)}, nil
	}

	body, ct := multipartBody(t, nil, "cv.pdf", []byte("%PDF"))
	rec := f.do(t, http.MethodPost, "/api/v1/contracts/42/attachments", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "42", form.Fields["contractId"])
	require.Equal(t, "cv.pdf", form.Files[0].FileName)
	require.Equal(t, []byte("%PDF"), form.Files[0].Data)

	body, ct = multipartBody(t, map[string]string{"note": "x"}, "", nil)
	rec = f.do(t, http.MethodPost, "/api/v1/contracts/42/attachments", body, ct)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSigningFlowOverHTTP(t *testing.T) {
	f := newFixture(t, true)
	var form *ports.MultipartForm
	f.api.PostFn = func(ctx context.Context, path string, body any, cfg *ports.RequestConfig) (*ports.Response, error) {
		switch path {
		case "/signatures/send-otp":
			require.Equal(t, signature.SendOTPRequest{Email: "ann@example.com"}, body)
			return &ports.Response{StatusCode: 204}, nil
		case "/signatures/sign":
			form = body.(*ports.MultipartForm)
			return &ports.Response{StatusCode: 201, Body: []byte(`{"id":9,"contractId":42,"signerId":7}`)}, nil
		}
		return nil, errors.New("unexpected path " + path)
	}

	body, ct := multipartBody(t, map[string]string{"otp": "123456"}, "", nil)
	rec := f.do(t, http.MethodPost, "/api/v1/contracts/42/signing/submit", body, ct)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/contracts/42/signing/otp", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[signingView](t, rec)
	require.Equal(t, "otp_requested", string(view.State))
	require.True(t, view.ModalOpen)

	body, ct = multipartBody(t, map[string]string{"otp": "123456"}, "", nil)
	rec = f.do(t, http.MethodPost, "/api/v1/contracts/42/signing/submit", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "123456", form.Fields["otp"])
	require.Equal(t, "7", form.Fields["signerId"])
	require.Equal(t, "empty.pdf", form.Files[0].FileName)

	rec = f.do(t, http.MethodGet, "/api/v1/contracts/42/signing", nil, "")
	view = decodeBody[signingView](t, rec)
	require.Equal(t, "signed", string(view.State))
	require.False(t, view.ModalOpen)
	require.False(t, view.HasOTP)
}

func TestSigningFailureIsReported(t *testing.T) {
	f := newFixture(t, true)
	f.api.PostFn = func(ctx context.Context, path string, body any, cfg *ports.RequestConfig) (*ports.Response, error) {
		if path == "/signatures/sign" {
			return nil, &apierr.HTTPError{StatusCode: 400, Message: "invalid otp"}
		}
		return &ports.Response{StatusCode: 204}, nil
	}

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/v1/contracts/42/signing/otp", nil, "").Code)
	rec := f.do(t, http.MethodPost, "/api/v1/contracts/42/signing/submit", strings.NewReader("otp=000000"), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	view := decodeBody[signingView](t, f.do(t, http.MethodGet, "/api/v1/contracts/42/signing", nil, ""))
	require.Equal(t, "otp_requested", string(view.State))
	require.True(t, view.HasOTP)
	require.Equal(t, "invalid otp", view.Error)
}

type stubChecker struct {
	name string
	err  error
}

func (c stubChecker) Name() string                    { return c.name }
func (c stubChecker) Check(ctx context.Context) error { return c.err }

func TestHealth(t *testing.T) {
	f := newFixture(t, false, stubChecker{name: "api"})
	rec := f.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	require.Equal(t, "contract-admin", body["service"])
	require.Equal(t, "none", body["session"])
	require.Equal(t, 0.0, body["queryEntries"])

	f = newFixture(t, false, stubChecker{name: "api"}, stubChecker{name: "redis", err: errors.New("down")})
	rec = f.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	deps := decodeBody[map[string]any](t, rec)["dependencies"].(map[string]any)
	require.Equal(t, "unhealthy", deps["redis"])
	require.Equal(t, "healthy", deps["api"])

	f = newFixture(t, true)
	rec = f.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, "active", decodeBody[map[string]any](t, rec)["session"])
}
