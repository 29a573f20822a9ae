package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounter backs the counter with Redis so the limit holds across
// replicas. Expiry is set only when the key is created, giving each key a
// fixed window from its first increment.
type RedisCounter struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client, prefix string) *RedisCounter {
	return &RedisCounter{client: client, prefix: prefix}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int, error) {
	full := c.prefix + key

	n, err := c.client.Incr(ctx, full).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", full, err)
	}
	if n == 1 {
		if err := c.client.Expire(ctx, full, window).Err(); err != nil {
			return 0, fmt.Errorf("expire %s: %w", full, err)
		}
	}
	return int(n), nil
}
