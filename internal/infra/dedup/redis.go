package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGuard shares dedup state across horizontally scaled instances.
// SET NX with a TTL is the conditional-put: exactly one instance wins the
// reservation for a given payment id.
type RedisGuard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisGuard creates a Redis-backed guard. ttl <= 0 uses DefaultTTL.
func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisGuard{client: client, prefix: "settlement:seen:", ttl: ttl}
}

// CheckAndReserve returns true exactly once per payment id per TTL window,
// across every instance sharing the Redis database.
func (g *RedisGuard) CheckAndReserve(ctx context.Context, paymentID string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.prefix+paymentID, time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %q: %w", paymentID, err)
	}
	return ok, nil
}

// Ping verifies connectivity at startup so a misconfigured Redis fails the
// daemon boot instead of the first settlement.
func (g *RedisGuard) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}
