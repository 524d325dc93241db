package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/lexiquest/internal/config"
	"github.com/felixgeelhaar/lexiquest/internal/domain"
	"github.com/felixgeelhaar/lexiquest/internal/storage"
	"github.com/felixgeelhaar/lexiquest/internal/storage/local"
	"github.com/felixgeelhaar/lexiquest/internal/storage/postgres"
	"github.com/felixgeelhaar/lexiquest/internal/storage/redis"
	"github.com/felixgeelhaar/lexiquest/internal/storage/sqlite"
)

// Journal records domain events for later review.
type Journal interface {
	Record(ctx context.Context, e domain.Event) error
	Recent(ctx context.Context, limit int) ([]sqlite.ActivityEntry, error)
	Clear(ctx context.Context) error
}

// Backend is an opened storage backend.
type Backend struct {
	KV storage.KV
	// Journal is nil for backends without an activity log.
	Journal Journal
}

// OpenStorage opens the backend selected by cfg. dir is the data directory
// used by the file and sqlite backends when no explicit path is set.
func OpenStorage(ctx context.Context, cfg *config.LocalConfig, dir string, logger *slog.Logger) (Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return Backend{KV: storage.NewMemory()}, nil

	case config.BackendFile:
		store, err := local.NewStore(cfg.StoragePath(dir))
		if err != nil {
			return Backend{}, fmt.Errorf("open file storage: %w", err)
		}
		return Backend{KV: store}, nil

	case config.BackendSQLite:
		path := cfg.StoragePath(dir)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return Backend{}, fmt.Errorf("create sqlite directory: %w", err)
		}
		store, err := sqlite.OpenKVStore(ctx, path)
		if err != nil {
			return Backend{}, fmt.Errorf("open sqlite storage: %w", err)
		}
		return Backend{KV: store, Journal: sqlite.NewActivityLog(store.DB())}, nil

	case config.BackendRedis:
		rc := redis.DefaultConfig()
		rc.Addr = cfg.Storage.Redis.Addr
		rc.Password = cfg.Storage.Redis.Password
		rc.DB = cfg.Storage.Redis.DB
		rc.Prefix = cfg.Storage.Redis.Prefix
		store, err := redis.Open(ctx, rc)
		if err != nil {
			return Backend{}, fmt.Errorf("open redis storage: %w", err)
		}
		return Backend{KV: resilient(store, "redis", cfg, logger)}, nil

	case config.BackendPostgres:
		store, err := postgres.Open(ctx, cfg.Storage.Postgres.URL)
		if err != nil {
			return Backend{}, fmt.Errorf("open postgres storage: %w", err)
		}
		return Backend{KV: resilient(store, "postgres", cfg, logger)}, nil

	default:
		return Backend{}, fmt.Errorf("%w: storage backend %q", config.ErrInvalidConfig, cfg.Storage.Backend)
	}
}

func resilient(kv storage.KV, name string, cfg *config.LocalConfig, logger *slog.Logger) storage.KV {
	if !cfg.Storage.Resilience {
		return kv
	}
	rc := storage.DefaultResilientConfig()
	rc.Logger = logger
	return storage.NewResilient(kv, name, rc)
}

// recordActivity writes every event except timer ticks and state changes to
// j. An account deletion clears the journal.
func recordActivity(events *domain.EventDispatcher, j Journal, logger *slog.Logger) func() {
	return events.SubscribeAll(func(e domain.Event) {
		ctx := context.Background()
		switch e.EventType() {
		case domain.EventQuizTimerTick, domain.EventQuizStateChanged:
			return
		case domain.EventAccountDeleted:
			if err := j.Clear(ctx); err != nil {
				logger.Warn("failed to clear activity", "error", err)
			}
			return
		}
		if err := j.Record(ctx, e); err != nil {
			logger.Warn("failed to record activity", "event", e.EventType(), "error", err)
		}
	})
}
