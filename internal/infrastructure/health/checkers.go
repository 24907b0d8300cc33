package health

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"

	"github.com/avatarctic/contract-admin/internal/core/domain/apierr"
	"github.com/avatarctic/contract-admin/internal/core/ports"
)

// redisHealthChecker wraps the redis client for health checks.
type redisHealthChecker struct{ client redis.Cmdable }

func (r *redisHealthChecker) Name() string                    { return "redis" }
func (r *redisHealthChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// apiHealthChecker probes the remote API. Any HTTP answer counts as
// reachable; only a missing response is unhealthy.
type apiHealthChecker struct {
	client ports.APIClient
	path   string
}

func (a *apiHealthChecker) Name() string { return "api" }

func (a *apiHealthChecker) Check(ctx context.Context) error {
	_, err := a.client.Get(ctx, a.path, nil)
	var te *apierr.TransportError
	if errors.As(err, &te) {
		return err
	}
	return nil
}

// NewRedisHealthChecker creates a health checker for Redis.
func NewRedisHealthChecker(client redis.Cmdable) ports.HealthChecker {
	return &redisHealthChecker{client: client}
}

// NewAPIHealthChecker creates a health checker that issues GET path against the API.
func NewAPIHealthChecker(client ports.APIClient, path string) ports.HealthChecker {
	return &apiHealthChecker{client: client, path: path}
}
