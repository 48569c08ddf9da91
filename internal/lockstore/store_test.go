package lockstore_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"livecap/internal/lockstore"
	"livecap/internal/services"
)

func stores(t *testing.T) map[string]lockstore.Store {
	t.Helper()
	return map[string]lockstore.Store{
		"dir":    lockstore.NewDirStore(filepath.Join(t.TempDir(), "locks")),
		"memory": lockstore.NewMemoryStore(),
	}
}

func TestStoreLifecycle(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			exists, err := store.Exists("alice")
			if err != nil || exists {
				t.Fatalf("expected no marker, got exists=%v err=%v", exists, err)
			}

			meta := lockstore.NewMarker("alice", "http://x/stream-42_a.m3u8", "run-1", time.Now())
			if err := store.Acquire("alice", meta); err != nil {
				t.Fatalf("Acquire: %v", err)
			}
			if exists, _ := store.Exists("alice"); !exists {
				t.Fatal("expected marker after acquire")
			}

			err = store.Acquire("alice", meta)
			if !errors.Is(err, lockstore.ErrHeld) {
				t.Fatalf("expected ErrHeld on second acquire, got %v", err)
			}
			if !errors.Is(err, services.ErrLockStore) {
				t.Fatalf("expected lock store classification, got %v", err)
			}

			if err := store.Release("alice"); err != nil {
				t.Fatalf("Release: %v", err)
			}
			if exists, _ := store.Exists("alice"); exists {
				t.Fatal("expected marker removed")
			}
			if err := store.Release("alice"); err != nil {
				t.Fatalf("releasing absent marker should succeed: %v", err)
			}
		})
	}
}

func TestStoreClearAllAndList(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			now := time.Now()
			for _, id := range []string{"bob", "alice"} {
				if err := store.Acquire(id, lockstore.NewMarker(id, "addr-"+id, "run-2", now)); err != nil {
					t.Fatalf("Acquire %s: %v", id, err)
				}
			}
			markers, err := store.List()
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(markers) != 2 || markers[0].ID != "alice" || markers[1].ID != "bob" {
				t.Fatalf("unexpected markers: %+v", markers)
			}
			if markers[1].Address != "addr-bob" || markers[1].RunID != "run-2" {
				t.Fatalf("expected marker metadata to round-trip, got %+v", markers[1])
			}

			removed, err := store.ClearAll()
			if err != nil {
				t.Fatalf("ClearAll: %v", err)
			}
			if removed != 2 {
				t.Fatalf("expected 2 removed, got %d", removed)
			}
			for _, id := range []string{"alice", "bob"} {
				if exists, _ := store.Exists(id); exists {
					t.Fatalf("expected %s cleared", id)
				}
			}
		})
	}
}

func TestDirStoreClearAllLeavesOtherFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"alice.lock", "bob.lock", ".instance.flock", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.lock"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	removed, err := lockstore.NewDirStore(dir).ClearAll()
	if err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 markers removed, got %d", removed)
	}
	for _, name := range []string{".instance.flock", "notes.txt", "nested.lock"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s kept: %v", name, err)
		}
	}
}

func TestDirStoreClearAllMissingDirectory(t *testing.T) {
	removed, err := lockstore.NewDirStore(filepath.Join(t.TempDir(), "absent")).ClearAll()
	if err != nil || removed != 0 {
		t.Fatalf("expected no-op, got removed=%d err=%v", removed, err)
	}
}

func TestDirStoreListToleratesGarbageMarker(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "carol.lock"), []byte("not json"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	markers, err := lockstore.NewDirStore(dir).List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(markers) != 1 || markers[0].ID != "carol" {
		t.Fatalf("expected carol marker with id only, got %+v", markers)
	}
	if markers[0].AcquiredAt.IsZero() {
		t.Fatal("expected file modification time as acquisition fallback")
	}
}

func TestStoresRefuseUnusableIDs(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"", "   ", "../escape", "a/b", "user:1", ".hidden", "tab\tid"} {
				if _, err := store.Exists(id); !errors.Is(err, lockstore.ErrInvalidID) || !errors.Is(err, services.ErrLockStore) {
					t.Fatalf("Exists(%q) err = %v, want ErrInvalidID as a lock store error", id, err)
				}
				if err := store.Acquire(id, lockstore.NewMarker(id, "http://x", "run", time.Now())); !errors.Is(err, lockstore.ErrInvalidID) {
					t.Fatalf("Acquire(%q) err = %v, want ErrInvalidID", id, err)
				}
				if err := store.Release(id); !errors.Is(err, lockstore.ErrInvalidID) {
					t.Fatalf("Release(%q) err = %v, want ErrInvalidID", id, err)
				}
			}
			markers, err := store.List()
			if err != nil || len(markers) != 0 {
				t.Fatalf("refused ids left markers behind: %v (err=%v)", markers, err)
			}
		})
	}
}

func TestDirStoreMarkerPathUsesIDVerbatim(t *testing.T) {
	dir := t.TempDir()
	store := lockstore.NewDirStore(dir)
	path, err := store.MarkerPath("alice-2")
	if err != nil {
		t.Fatalf("MarkerPath: %v", err)
	}
	if path != filepath.Join(dir, "alice-2.lock") {
		t.Fatalf("unexpected marker path %s", path)
	}
	if _, err := store.MarkerPath("alice/2"); !errors.Is(err, lockstore.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID for an id that would be rewritten, got %v", err)
	}
}

func TestDirStoreAcquireIsExclusive(t *testing.T) {
	store := lockstore.NewDirStore(t.TempDir())
	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.Acquire("alice", lockstore.Marker{}) == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if got := wins.Load(); got != 1 {
		t.Fatalf("expected exactly one acquirer, got %d", got)
	}
}

func TestMarkerAge(t *testing.T) {
	now := time.Now()
	m := lockstore.Marker{AcquiredAt: now.Add(-time.Minute)}
	if got := m.Age(now); got != time.Minute {
		t.Fatalf("expected 1m, got %v", got)
	}
	if got := (lockstore.Marker{}).Age(now); got != 0 {
		t.Fatalf("expected zero age for unknown acquisition, got %v", got)
	}
}
