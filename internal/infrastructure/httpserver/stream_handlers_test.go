package httpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avatarctic/contract-admin/internal/core/domain/apierr"
	"github.com/avatarctic/contract-admin/internal/core/domain/contract"
	"github.com/avatarctic/contract-admin/internal/core/domain/notification"
	"github.com/avatarctic/contract-admin/internal/core/ports"
)

func TestContractDetailOffersActions(t *testing.T) {
	f := newFixture(t, true)
	f.api.GetFn = func(ctx context.Context, path string, cfg *ports.RequestConfig) (*ports.Response, error) {
		require.Equal(t, "/contracts/42", path)
		return jsonResponse(`{"id":42,"title":"Employment","status":"approved"}`)
	}

	rec := f.do(t, http.MethodGet, "/api/v1/contracts/42", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[contractView](t, rec)
	require.Equal(t, 42, view.ID)
	require.True(t, view.Signable)
	require.Equal(t, contract.StatusApproved, view.Status)
}

func TestContractUpdateRelaysStatusConflict(t *testing.T) {
	f := newFixture(t, true)
	f.api.PutFn = func(ctx context.Context, path string, body any, cfg *ports.RequestConfig) (*ports.Response, error) {
		req := body.(contract.UpdateContractRequest)
		if *req.Status == contract.StatusSigned {
			return nil, &apierr.HTTPError{Method: http.MethodPut, Path: path, StatusCode: http.StatusConflict, Message: "contract is not approved"}
		}
		return jsonResponse(`{"id":42,"status":"pending_approval"}`)
	}

	rec := f.doJSON(t, http.MethodPut, "/api/v1/contracts/42", map[string]string{"status": "signed"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "contract is not approved")

	rec = f.doJSON(t, http.MethodPut, "/api/v1/contracts/42", map[string]string{"status": "pending_approval"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, f.api.CallCount(http.MethodPut, "/contracts/42"))
	require.Zero(t, f.api.CallCount(http.MethodGet, "/contracts/42"))
}

func TestFocus(t *testing.T) {
	f := newFixture(t, true)
	rec := f.do(t, http.MethodPost, "/api/v1/focus", nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestNotificationStreamPushesState(t *testing.T) {
	f := newFixture(t, true)
	f.api.GetFn = func(ctx context.Context, path string, cfg *ports.RequestConfig) (*ports.Response, error) {
		require.Equal(t, "/notifications", path)
		require.Equal(t, "7", cfg.Query.Get("userId"))
		return jsonResponse(`{"items":[{"id":1,"title":"Contract approved"}],"total":1,"page":1,"limit":10}`)
	}
	ts := httptest.NewServer(f.srv.Echo())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/notifications/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// the first event may be the loading state; read until data arrives
	scanner := bufio.NewScanner(resp.Body)
	var ev streamEvent[notification.Page]
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		if ev.Data != nil {
			break
		}
	}
	require.NotNil(t, ev.Data)
	require.Equal(t, "success", ev.Status)
	require.Equal(t, "Contract approved", ev.Data.Items[0].Title)
}
