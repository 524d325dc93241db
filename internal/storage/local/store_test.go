package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/felixgeelhaar/lexiquest/internal/storage"
	"github.com/felixgeelhaar/lexiquest/internal/storage/storagetest"
)

func TestStore_Contract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.KV {
		store, err := NewStore(t.TempDir())
		if err != nil {
			t.Fatalf("NewStore() error = %v", err)
		}
		return store
	})
}

func TestNewStore_CreatesDirectory(t *testing.T) {
	newDir := filepath.Join(t.TempDir(), "subdir", "nested")

	store, err := NewStore(newDir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if store.basePath != newDir {
		t.Errorf("basePath = %v, want %v", store.basePath, newDir)
	}

	info, err := os.Stat(newDir)
	if err != nil {
		t.Fatalf("directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected directory, got file")
	}
}

func TestStore_WritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewStore(dir)

	if err := store.Set(context.Background(), storage.KeyUser, []byte(`{"name":"Ana"}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "user.json"))
	if err != nil {
		t.Fatalf("read user.json: %v", err)
	}
	if string(data) != `{"name":"Ana"}` {
		t.Errorf("user.json = %s", data)
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestStore_RejectsPathKeys(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	for _, key := range []string{"", "../escape", "a/b", ".."} {
		if err := store.Set(context.Background(), key, []byte("x")); !errors.Is(err, storage.ErrInvalidKey) {
			t.Errorf("Set(%q) error = %v; want ErrInvalidKey", key, err)
		}
	}
}

func TestStore_Keys(t *testing.T) {
	ctx := context.Background()
	store, _ := NewStore(t.TempDir())

	keys, err := store.Keys()
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("Keys() = %v; want empty", keys)
	}

	for _, k := range storage.AllKeys {
		store.Set(ctx, k, []byte("{}"))
	}
	keys, _ = store.Keys()
	if len(keys) != len(storage.AllKeys) {
		t.Errorf("Keys() returned %d keys; want %d", len(keys), len(storage.AllKeys))
	}
}

func TestStore_Concurrency(t *testing.T) {
	ctx := context.Background()
	store, _ := NewStore(t.TempDir())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("item%d", n)
			if err := store.Set(ctx, key, []byte(fmt.Sprintf("%d", n))); err != nil {
				t.Errorf("Set(%s) error = %v", key, err)
			}
			if _, err := store.Get(ctx, key); err != nil {
				t.Errorf("Get(%s) error = %v", key, err)
			}
		}(i)
	}
	wg.Wait()

	keys, _ := store.Keys()
	if len(keys) != 10 {
		t.Errorf("Keys() returned %d keys; want 10", len(keys))
	}
}
