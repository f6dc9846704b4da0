// Package testutil provides shared test helpers: temporary notes
// directories, ledgers and fake YouTube backends.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/tubenotes/internal/index"
	"github.com/starford/tubenotes/internal/notestore"
	"github.com/starford/tubenotes/internal/storage"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite ledger that is closed on cleanup.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestNotes creates a temporary notes directory with a storage.Provider.
func TestNotes(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// TestStore opens a note store over a fresh notes directory.
func TestStore(t *testing.T) (string, *notestore.Store) {
	t.Helper()
	dir := t.TempDir()
	return dir, OpenStore(t, dir)
}

// OpenStore opens a note store over dir; it is closed on cleanup.
func OpenStore(t *testing.T, dir string) *notestore.Store {
	t.Helper()
	s, err := notestore.Open(dir, "", Logger())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
