package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements the two commands RedisRevocations uses. Calling any
// other redis.Cmdable method panics on the nil embedded interface.
type fakeRedis struct {
	redis.Cmdable

	keys    map[string]time.Duration
	failing error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{keys: make(map[string]time.Duration)}
}

func (f *fakeRedis) Set(_ context.Context, key string, _ any, expiration time.Duration) *redis.StatusCmd {
	if f.failing != nil {
		return redis.NewStatusResult("", f.failing)
	}
	f.keys[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	if f.failing != nil {
		return redis.NewIntResult(0, f.failing)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisRevocations(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	fake := newFakeRedis()
	r := NewRedisRevocations(fake)
	r.now = func() time.Time { return now }

	require.NoError(t, r.Revoke(ctx, "jti-1", now.Add(30*time.Minute)))
	assert.Equal(t, 30*time.Minute, fake.keys[KeyPrefix+"jti-1"], "key TTL should match the token's remaining life")

	revoked, err := r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = r.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisRevocations_SkipsExpiredTokens(t *testing.T) {
	fake := newFakeRedis()
	r := NewRedisRevocations(fake)

	require.NoError(t, r.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)))
	assert.Empty(t, fake.keys)
}

func TestRedisRevocations_PropagatesErrors(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	fake.failing = errors.New("connection refused")
	r := NewRedisRevocations(fake)

	err := r.Revoke(ctx, "jti", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, fake.failing)

	_, err = r.IsRevoked(ctx, "jti")
	assert.ErrorIs(t, err, fake.failing)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Port 1 on loopback is reserved and refuses connections.
	_, err := NewRedisClient(ctx, "127.0.0.1:1")
	assert.Error(t, err)
}
