package httpclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avatarctic/contract-admin/internal/core/domain/apierr"
	"github.com/avatarctic/contract-admin/internal/core/ports"
	"github.com/avatarctic/contract-admin/internal/infrastructure/httpclient"
)

func newClient(t *testing.T, baseURL string, opts ...func(*httpclient.ClientOptions)) *httpclient.Client {
	t.Helper()
	o := httpclient.ClientOptions{BaseURL: baseURL}
	for _, fn := range opts {
		fn(&o)
	}
	c, err := httpclient.NewClient(o)
	require.NoError(t, err)
	return c
}

func TestNewClient_RejectsRelativeBase(t *testing.T) {
	_, err := httpclient.NewClient(httpclient.ClientOptions{BaseURL: "/api/v1"})
	require.Error(t, err)
}

func TestGet_SendsQueryAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/v1/users", r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		require.Empty(t, r.Header.Get("Content-Type"))
		require.NotEmpty(t, r.Header.Get(httpclient.RequestIDHeader))
		require.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total":3}`))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL+"/api/v1/")
	resp, err := c.Get(context.Background(), "/users", &ports.RequestConfig{Query: map[string][]string{"page": {"2"}}})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct{ Total int }
	require.NoError(t, resp.Decode(&out))
	require.Equal(t, 3, out.Total)
}

func TestPost_EncodesJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, map[string]string{"email": ""}, body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	resp, err := c.Post(context.Background(), "signatures/send-otp", map[string]string{"email": ""}, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	var v struct{}
	require.NoError(t, resp.Decode(&v))
}

func TestPost_EncodesMultipartForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "42", r.FormValue("contractId"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		require.Equal(t, "contract.pdf", hdr.Filename)
		require.Equal(t, "application/pdf", hdr.Header.Get("Content-Type"))
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		require.Equal(t, "%PDF", string(data))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	form := &ports.MultipartForm{
		Fields: map[string]string{"contractId": "42"},
		Files:  []ports.FormFile{{Field: "file", FileName: "contract.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}},
	}
	c := newClient(t, srv.URL)
	resp, err := c.Post(context.Background(), "/signatures/sign", form, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestDo_MapsHTTPErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"message field", http.StatusBadRequest, `{"message":"otp expired"}`, "otp expired"},
		{"error field", http.StatusNotFound, `{"error":"contract not found"}`, "contract not found"},
		{"plain body", http.StatusInternalServerError, "oops", ""},
		{"empty body", http.StatusServiceUnavailable, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newClient(t, srv.URL).Put(context.Background(), "/contracts/1", map[string]string{}, nil)
			var he *apierr.HTTPError
			require.ErrorAs(t, err, &he)
			require.Equal(t, tt.status, he.StatusCode)
			require.Equal(t, http.MethodPut, he.Method)
			require.Equal(t, "/contracts/1", he.Path)
			require.Equal(t, tt.body, string(he.Body))
			require.Equal(t, tt.wantMsg, he.Message)
			require.Equal(t, tt.status, apierr.StatusCode(err))
		})
	}
}

func TestDo_TransportErrorWhenNoResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newClient(t, url).Delete(context.Background(), "/users/1", nil)
	var te *apierr.TransportError
	require.ErrorAs(t, err, &te)
	require.Equal(t, http.MethodDelete, te.Method)
	require.Zero(t, apierr.StatusCode(err))
}

func TestDo_TimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := newClient(t, srv.URL, func(o *httpclient.ClientOptions) {
		o.Client = &http.Client{Timeout: 20 * time.Millisecond}
	})
	_, err := c.Get(context.Background(), "/notifications", nil)
	var te *apierr.TransportError
	require.ErrorAs(t, err, &te)
}

func TestDo_AttachesTokenWhenConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		require.Equal(t, "fixed", r.Header.Get(httpclient.RequestIDHeader))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, func(o *httpclient.ClientOptions) {
		o.TokenSource = func(context.Context) (string, error) { return "abc", nil }
	})
	hdr := http.Header{}
	hdr.Set(httpclient.RequestIDHeader, "fixed")
	_, err := c.Patch(context.Background(), "/notifications/read-all", nil, &ports.RequestConfig{Header: hdr})
	require.NoError(t, err)
}

func TestDo_TokenSourceErrorStopsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	boom := errors.New("store unavailable")
	c := newClient(t, srv.URL, func(o *httpclient.ClientOptions) {
		o.TokenSource = func(context.Context) (string, error) { return "", boom }
	})
	_, err := c.Get(context.Background(), "/users", nil)
	require.ErrorIs(t, err, boom)
	require.False(t, called)
}

func TestAssetURL(t *testing.T) {
	c := newClient(t, "https://api.example.com/api/v1/")
	require.Equal(t, "https://api.example.com/api/v1/contracts/5/pdf", c.AssetURL("/contracts/5/pdf"))
	require.Equal(t, "https://api.example.com/api/v1/contracts/5/pdf", c.AssetURL("contracts/5/pdf"))
}
