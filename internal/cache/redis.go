// Package cache holds the Redis-backed session denylist. It stores token IDs
// only; account and health data are never cached.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/healthvault/internal/auth"
)

// KeyPrefix namespaces revoked token IDs in a shared Redis.
const KeyPrefix = "healthvault:revoked:"

// NewRedisClient connects to Redis. redisURL may be a redis:// URL or a plain
// host:port. The connection is checked with a PING before returning.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: connecting to redis: %w", err)
	}

	return client, nil
}

// RedisRevocations implements auth.Revocations with one key per revoked token.
// Each key expires together with the token it blocks, so the set never grows
// past the number of live sessions.
type RedisRevocations struct {
	client redis.Cmdable
	now    func() time.Time
}

var _ auth.Revocations = (*RedisRevocations)(nil)

// NewRedisRevocations wraps an existing client.
func NewRedisRevocations(client redis.Cmdable) *RedisRevocations {
	return &RedisRevocations{client: client, now: time.Now}
}

// Revoke stores tokenID until expiresAt. Tokens that have already expired
// are not written.
func (r *RedisRevocations) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, KeyPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("cache: revoking token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID has an unexpired denylist key.
func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, KeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("cache: checking revocation: %w", err)
	}
	return n > 0, nil
}
