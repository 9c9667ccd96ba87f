package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "pillbox.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_GetSet(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	if _, found, err := store.Get(ctx, "supplementTrackerData"); err != nil || found {
		t.Fatalf("Get() on fresh db = found %v, err %v", found, err)
	}

	if err := store.Set(ctx, "supplementTrackerData", `[]`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(ctx, "supplementTrackerData", `[{"id":"a"}]`); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	got, found, err := store.Get(ctx, "supplementTrackerData")
	if err != nil || !found || got != `[{"id":"a"}]` {
		t.Errorf("Get() = %q, %v, %v", got, found, err)
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 1 || keys["supplementTrackerData"] == "" {
		t.Errorf("Keys() = %v", keys)
	}
}

func TestStore_ReopenAndValidate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pillbox.db")

	store := NewStore(path)
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := store.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	store.Close()

	reopened := NewStore(path)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer reopened.Close()

	if got, found, _ := reopened.Get(ctx, "k"); !found || got != "v" {
		t.Errorf("Get() after reopen = %q, %v", got, found)
	}

	// Init is idempotent on an initialized database.
	if err := reopened.Init(); err != nil {
		t.Errorf("Init() on existing db error = %v", err)
	}
}

func TestStore_LoadUninitialized(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	err := store.Load()
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("Load() error = %v, want not initialized", err)
	}
	if _, _, err := store.Get(context.Background(), "k"); err == nil {
		t.Error("Get() on closed store should fail")
	}
}
