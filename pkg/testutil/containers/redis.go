//go:build integration

// Package containers starts the backing services used by integration tests.
// Every container is terminated when the test that started it finishes.
package containers

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// Redis is a throwaway Redis instance plus a connected client.
type Redis struct {
	URL    string
	Client *redis.Client
}

// StartRedis runs redis:7-alpine and returns a client that has answered PING.
func StartRedis(t *testing.T) *Redis {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}

	url, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("redis connection string: %v", err)
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse redis url %q: %v", url, err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}
	return &Redis{URL: url, Client: client}
}

// Flush empties the database between tests.
func (r *Redis) Flush(ctx context.Context) error {
	return r.Client.FlushAll(ctx).Err()
}
