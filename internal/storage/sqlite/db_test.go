package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/lexiquest/internal/storage"
	"github.com/felixgeelhaar/lexiquest/internal/storage/storagetest"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen(t *testing.T) {
	db := openTestDB(t)

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %q; want wal", journalMode)
	}
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	version, err := db.Version(ctx)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if version != 2 {
		t.Errorf("Version() = %d; want 2", version)
	}

	for _, table := range []string{"kv", "activity_events"} {
		var name string
		if err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name); err != nil {
			t.Errorf("%s table missing: %v", table, err)
		}
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("first Migrate() error = %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM schema_migrations"); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 2 {
		t.Errorf("schema_migrations rows = %d; want 2", count)
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name    string
		want    int
		wantErr bool
	}{
		{"001_kv.sql", 1, false},
		{"012_add_index.sql", 12, false},
		{"kv.sql", 0, true},
		{"abc_kv.sql", 0, true},
	}
	for _, tt := range tests {
		got, err := parseVersion(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseVersion(%q) error = %v; wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseVersion(%q) = %d; want %d", tt.name, got, tt.want)
		}
	}
}

func TestKVStore_Contract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.KV {
		store, err := OpenKVStore(context.Background(), filepath.Join(t.TempDir(), "kv.db"))
		if err != nil {
			t.Fatalf("OpenKVStore() error = %v", err)
		}
		t.Cleanup(func() { store.Close() })
		return store
	})
}

func TestKVStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	store, err := OpenKVStore(ctx, path)
	if err != nil {
		t.Fatalf("OpenKVStore() error = %v", err)
	}
	if err := store.Set(ctx, storage.KeyUser, []byte(`{"name":"Ana"}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	store.Close()

	reopened, err := OpenKVStore(ctx, path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, storage.KeyUser)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `{"name":"Ana"}` {
		t.Errorf("Get() = %s", got)
	}
}
