package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/tubenotes/internal/storage"
)

type syncReconciler struct {
	db    *DB
	store storage.Provider
}

func (r syncReconciler) Reconcile() ([]Change, error) {
	return Sync(r.db, r.store, discardLogger())
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func recorded(db *DB, id string) string {
	r, err := db.GetRecord(id)
	if err != nil {
		return ""
	}
	return r.Path
}

func TestWatcher_NewNoteRecorded(t *testing.T) {
	root, store, db := syncEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string
	go Watch(ctx, root, syncReconciler{db, store}, discardLogger(), func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(root, "new.md"), note("aaaaaaaaaaa", "New"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return recorded(db, "aaaaaaaaaaa") == "new.md"
	}, "new note not recorded by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:new.md" {
				return true
			}
		}
		return false
	}, "expected created:new.md callback")
}

func TestWatcher_NewDirWatched(t *testing.T) {
	root, store, db := syncEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, root, syncReconciler{db, store}, discardLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	sub := filepath.Join(root, "videos")
	_ = os.MkdirAll(sub, 0o755)
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(sub, "deep.md"), note("bbbbbbbbbbb", "Deep"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return recorded(db, "bbbbbbbbbbb") == "videos/deep.md"
	}, "note in new subdir not recorded by watcher")
}

func TestWatcher_DeleteRemovesRecord(t *testing.T) {
	root, store, db := syncEnv(t)
	_ = os.WriteFile(filepath.Join(root, "del.md"), note("ccccccccccc", "Delete"), 0o644)
	if _, err := Sync(db, store, discardLogger()); err != nil {
		t.Fatal(err)
	}
	if recorded(db, "ccccccccccc") == "" {
		t.Fatal("precondition: note should be recorded")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, root, syncReconciler{db, store}, discardLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(root, "del.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return recorded(db, "ccccccccccc") == ""
	}, "deleted note still recorded")
}
