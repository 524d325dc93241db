// Package redis stores progress snapshots in Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/lexiquest/internal/storage"
)

// Config holds Redis connection configuration.
type Config struct {
	// Addr is the server address in "host:port" form.
	Addr string

	// Password is the authentication password (empty if no auth).
	Password string

	// DB is the Redis database number.
	DB int

	// Prefix namespaces every key, e.g. "lexiquest:".
	Prefix string

	// DialTimeout bounds the initial connection and ping.
	DialTimeout time.Duration
}

// DefaultConfig returns a configuration for a local Redis server.
func DefaultConfig() Config {
	return Config{
		Addr:        "localhost:6379",
		Prefix:      "lexiquest:",
		DialTimeout: 5 * time.Second,
	}
}

// KVStore implements storage.KV on plain Redis strings.
type KVStore struct {
	client *redis.Client
	prefix string
}

var _ storage.KV = (*KVStore)(nil)

// Open connects to Redis and verifies the connection with a ping.
func Open(ctx context.Context, cfg Config) (*KVStore, error) {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}

	return NewKVStore(client, cfg.Prefix), nil
}

// NewKVStore wraps an existing client.
func NewKVStore(client *redis.Client, prefix string) *KVStore {
	return &KVStore{client: client, prefix: prefix}
}

func (s *KVStore) key(k string) string {
	return s.prefix + k
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, storage.ErrInvalidKey
	}
	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return storage.ErrInvalidKey
	}
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return storage.ErrInvalidKey
	}
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *KVStore) Close() error {
	return s.client.Close()
}
