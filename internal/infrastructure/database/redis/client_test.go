package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/SymptomSense/pkg/errors"
)

func TestNewClient_Success(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), &RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewClient_ConnectionFailed(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client, err := NewClient(context.Background(), &RedisConfig{Addr: addr, DialTimeout: 200 * time.Millisecond, MaxRetries: -1}, nil)
	assert.Nil(t, client)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func TestClient_Operations(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), &RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "prediction:a", "1", 0).Err())
	require.NoError(t, client.Set(ctx, "other", "2", 0).Err())

	val, err := client.Get(ctx, "prediction:a").Result()
	require.NoError(t, err)
	assert.Equal(t, "1", val)

	keys, _, err := client.Scan(ctx, 0, "prediction:*", 10).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"prediction:a"}, keys)

	deleted, err := client.Del(ctx, "prediction:a").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.False(t, mr.Exists("prediction:a"))
}

func TestClient_Close(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), &RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)

	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close())

	ctx := context.Background()
	assert.ErrorIs(t, client.Get(ctx, "foo").Err(), ErrClientClosed)
	assert.ErrorIs(t, client.Set(ctx, "foo", "bar", 0).Err(), ErrClientClosed)
	assert.ErrorIs(t, client.Ping(ctx), ErrClientClosed)
}

func TestCache_ExpiresWithMiniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), &RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()

	cache := NewRedisCache(client, nil, WithPrefix("t:"), WithTTLJitter(0))
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "k", map[string]int{"n": 1}, time.Minute))

	var got map[string]int
	require.NoError(t, cache.Get(ctx, "k", &got))
	assert.Equal(t, 1, got["n"])

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, cache.Get(ctx, "k", &got), ErrCacheMiss)
}
