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

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	client := startRedis(t)
	store := NewRedisStore(client, "it:")

	_, ok, err := store.Get(ctx, "alice", "/missing")
	require.NoError(t, err)
	assert.False(t, ok)

	for i, key := range []string{"/a", "/b", "/c"} {
		require.NoError(t, store.Set(ctx, "alice", key, &Entry{Status: 200 + i, Body: []byte(key)}, time.Minute))
	}
	require.NoError(t, store.Set(ctx, "bob", "/a", &Entry{Status: 200}, time.Minute))

	got, ok, err := store.Get(ctx, "alice", "/b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 201, got.Status)
	assert.Equal(t, "/b", string(got.Body))

	removed, err := store.InvalidateOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	_, ok, _ = store.Get(ctx, "bob", "/a")
	assert.True(t, ok)
}
