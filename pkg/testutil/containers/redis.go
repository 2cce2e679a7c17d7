//go:build integration

// Package containers starts throwaway backing services for integration tests.
package containers

import (
	"context"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const redisImage = "redis:7-alpine"

// RedisContainer wraps a testcontainers Redis instance.
type RedisContainer struct {
	Container testcontainers.Container
	URL       string
	Client    *redis.Client
}

var (
	sharedRedisOnce sync.Once
	sharedRedis     *RedisContainer
	sharedRedisErr  error
)

// SharedRedis returns a Redis container shared by every test in the binary.
// Ryuk removes it when the test process exits.
func SharedRedis(t *testing.T) *RedisContainer {
	t.Helper()
	sharedRedisOnce.Do(func() {
		sharedRedis, sharedRedisErr = startRedis(context.Background())
	})
	if sharedRedisErr != nil {
		t.Fatalf("failed to start redis container: %v", sharedRedisErr)
	}
	return sharedRedis
}

func startRedis(ctx context.Context) (*RedisContainer, error) {
	container, err := tcredis.Run(ctx, redisImage)
	if err != nil {
		return nil, err
	}

	url, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		_ = container.Terminate(ctx)
		return nil, err
	}

	return &RedisContainer{
		Container: container,
		URL:       url,
		Client:    client,
	}, nil
}

// NewClient opens an additional connection to the container, closed when t
// finishes. Pub/sub tests need one client per simulated instance.
func (r *RedisContainer) NewClient(t *testing.T) *redis.Client {
	t.Helper()
	opts, err := redis.ParseURL(r.URL)
	if err != nil {
		t.Fatalf("failed to parse redis URL: %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// FlushAll removes all keys from the Redis database.
func (r *RedisContainer) FlushAll(ctx context.Context) error {
	return r.Client.FlushAll(ctx).Err()
}
