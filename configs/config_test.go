package configs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avatarctic/contract-admin/configs"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com/api/v1")

	cfg, err := configs.Load()
	require.NoError(t, err)
	require.Equal(t, "https://api.example.com/api/v1", cfg.API.BaseURL)
	require.False(t, cfg.API.AttachToken)
	require.Equal(t, 1, cfg.Query.Retry)
	require.Equal(t, time.Second, cfg.Query.RetryDelay)
	require.Equal(t, 5*time.Minute, cfg.Query.GCTime)
	require.Equal(t, 5*time.Second, cfg.Query.PollInterval)
	require.False(t, cfg.Redis.Enabled)
	require.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://localhost:3000")
	t.Setenv("API_ATTACH_TOKEN", "true")
	t.Setenv("QUERY_STALE_TIME", "30s")
	t.Setenv("QUERY_RETRY", "0")
	t.Setenv("REDIS_ENABLED", "1")
	t.Setenv("QUERY_POLL_INTERVAL", "not-a-duration")

	cfg, err := configs.Load()
	require.NoError(t, err)
	require.True(t, cfg.API.AttachToken)
	require.Equal(t, 30*time.Second, cfg.Query.StaleTime)
	require.Equal(t, 0, cfg.Query.Retry)
	require.True(t, cfg.Redis.Enabled)
	require.Equal(t, 5*time.Second, cfg.Query.PollInterval)
}

func TestLoad_RequiresBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	_, err := configs.Load()
	require.ErrorContains(t, err, "API_BASE_URL")
}
