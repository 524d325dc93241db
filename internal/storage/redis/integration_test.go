//go:build integration

package redis_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/felixgeelhaar/lexiquest/internal/storage"
	"github.com/felixgeelhaar/lexiquest/internal/storage/redis"
	"github.com/felixgeelhaar/lexiquest/internal/storage/storagetest"
)

// setupRedis starts a Redis container and returns its address
func setupRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start Redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("failed to get port: %v", err)
	}
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestIntegration_KVStore_Contract(t *testing.T) {
	addr := setupRedis(t)
	n := 0

	storagetest.Run(t, func(t *testing.T) storage.KV {
		n++
		cfg := redis.DefaultConfig()
		cfg.Addr = addr
		cfg.Prefix = fmt.Sprintf("test%d:", n)

		store, err := redis.Open(context.Background(), cfg)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		t.Cleanup(func() { store.Close() })
		return store
	})
}

func TestIntegration_Open_Unreachable(t *testing.T) {
	cfg := redis.DefaultConfig()
	cfg.Addr = "127.0.0.1:1"

	if _, err := redis.Open(context.Background(), cfg); err == nil {
		t.Fatal("Open() against a closed port should fail")
	}
}
