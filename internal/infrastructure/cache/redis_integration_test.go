//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisStore(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()
	store := NewRedisStore(client)
	store.scanCount = 2

	c := New("catalog", "portal:", store)
	for i, key := range []string{"t1:list:1", "t1:list:2", "t1:item:a", "t2:list:1"} {
		require.NoError(t, c.Set(ctx, key, i, time.Minute))
	}

	ttl, err := client.PTTL(ctx, "portal:catalog:t1:list:1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)

	n, err := c.InvalidatePrefix(ctx, "t1:")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var v int
	assert.False(t, c.Get(ctx, "t1:item:a", &v))
	assert.True(t, c.Get(ctx, "t2:list:1", &v))
	assert.Equal(t, 3, v)

	got, err := Do(ctx, c, "fresh", time.Minute, func(context.Context) (string, error) { return "x", nil })
	require.NoError(t, err)
	assert.Equal(t, "x", got)

	require.NoError(t, c.Clear(ctx))
	keys, err := client.Keys(ctx, "portal:catalog:*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRedisIdempotencyStore(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()
	store := NewRedisIdempotencyStore(client, "portal:idempotency:")

	isNew, err := store.MarkProcessed(ctx, "T0001:PAID", time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = store.MarkProcessed(ctx, "T0001:PAID", time.Minute)
	require.NoError(t, err)
	assert.False(t, isNew)

	processed, err := store.IsProcessed(ctx, "T0001:PAID")
	require.NoError(t, err)
	assert.True(t, processed)

	require.NoError(t, store.Forget(ctx, "T0001:PAID"))
	processed, err = store.IsProcessed(ctx, "T0001:PAID")
	require.NoError(t, err)
	assert.False(t, processed)
}
