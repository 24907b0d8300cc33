package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/avatarctic/contract-admin/internal/core/ports"
)

// RedisCache is the persistence tier of the query cache: last-known read
// results keyed by their canonical query key.
type RedisCache struct {
	r redis.Cmdable
	// optional key prefix to namespace entries
	prefix string
}

var (
	_ ports.Cache         = (*RedisCache)(nil)
	_ ports.PrefixDeleter = (*RedisCache)(nil)
)

const scanBatch = 100

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

// NewRedisCache creates a new Redis-backed cache.
func NewRedisCache(r redis.Cmdable, prefix string) *RedisCache {
	return &RedisCache{r: r, prefix: prefix}
}

func (c *RedisCache) namespaced(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

// Get implements Cache.Get.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.r.Get(ctx, c.namespaced(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Set implements Cache.Set. A non-positive ttl stores the value without expiry.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.r.Set(ctx, c.namespaced(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete implements Cache.Delete.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.r.Del(ctx, c.namespaced(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// DeletePrefix implements PrefixDeleter. Keys are found with SCAN and
// removed page by page.
func (c *RedisCache) DeletePrefix(ctx context.Context, prefix string) error {
	match := globEscaper.Replace(c.namespaced(prefix)) + "*"
	var cursor uint64
	for {
		keys, next, err := c.r.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan %s: %w", prefix, err)
		}
		if len(keys) > 0 {
			if err := c.r.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del %s*: %w", prefix, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
