// Package notestore persists video notes and the playlist index under the
// notes directory and keeps the SQLite ledger of what has been synthesized.
package notestore

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/starford/tubenotes/internal/apperr"
	"github.com/starford/tubenotes/internal/checksum"
	"github.com/starford/tubenotes/internal/index"
	"github.com/starford/tubenotes/internal/models"
	"github.com/starford/tubenotes/internal/notefmt"
	"github.com/starford/tubenotes/internal/parser"
	"github.com/starford/tubenotes/internal/storage"
)

// VideosDir holds one note per video, relative to the notes root.
const VideosDir = "videos"

// LedgerDir is the hidden directory holding the default ledger database.
const LedgerDir = ".tubenotes"

// Summary is a ledger entry with the title recorded at write time.
type Summary struct {
	models.NoteRecord
	Title string `json:"title"`
}

// Store implements the engine's note store on top of a storage.Provider and
// an index.Ledger. Writes are serialized; reads go straight to the ledger.
type Store struct {
	mu     sync.Mutex
	files  storage.Provider
	ledger index.Ledger
	logger *slog.Logger
	now    func() time.Time
	root   string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for LastSynthesizedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRoot records the absolute notes directory, used by the watcher.
func WithRoot(root string) Option {
	return func(s *Store) { s.root = root }
}

// New builds a Store from its parts.
func New(files storage.Provider, ledger index.Ledger, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		files:  files,
		ledger: ledger,
		logger: logger,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Open opens the notes directory at notesDir (created if missing) with its
// ledger at dbPath, or <notesDir>/.tubenotes/records.db when dbPath is
// empty, and reconciles the ledger with the files on disk.
func Open(notesDir, dbPath string, logger *slog.Logger, opts ...Option) (*Store, error) {
	fsys, err := storage.NewFS(notesDir)
	if err != nil {
		return nil, err
	}
	if dbPath == "" {
		dbPath = filepath.Join(fsys.Root(), LedgerDir, "records.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("notestore: create ledger dir: %w", err)
	}
	db, err := index.Open(dbPath)
	if err != nil {
		return nil, err
	}

	s := New(fsys, db, logger, append([]Option{WithRoot(fsys.Root())}, opts...)...)
	changes, err := s.Reconcile()
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("notestore: opened",
		slog.String("root", fsys.Root()),
		slog.String("ledger", dbPath),
		slog.Int("reconciled", len(changes)))
	return s, nil
}

// Root returns the absolute notes directory, or "" when unknown.
func (s *Store) Root() string { return s.root }

// Close releases the ledger.
func (s *Store) Close() error { return s.ledger.Close() }

func (s *Store) record(videoID string) (*index.Record, error) {
	r, err := s.ledger.GetRecord(videoID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &apperr.StoreError{Op: "lookup", Path: videoID, Err: err}
	}
	return r, nil
}

// Exists reports whether videoID has a record whose file is still on disk.
func (s *Store) Exists(videoID string) (bool, error) {
	r, err := s.record(videoID)
	if err != nil || r == nil {
		return false, err
	}
	ok, err := s.files.Exists(r.Path)
	if err != nil {
		return false, &apperr.StoreError{Op: "stat", Path: r.Path, Err: err}
	}
	return ok, nil
}

// ReadRecord returns the record for videoID, or nil when there is none.
func (s *Store) ReadRecord(videoID string) (*models.NoteRecord, error) {
	r, err := s.record(videoID)
	if err != nil || r == nil {
		return nil, err
	}
	nr := toNoteRecord(*r)
	return &nr, nil
}

// ReadNote returns the raw note for videoID. It wraps apperr.ErrNotFound
// when the video has no record.
func (s *Store) ReadNote(videoID string) ([]byte, error) {
	r, err := s.record(videoID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("notestore: note %s: %w", videoID, apperr.ErrNotFound)
	}
	data, err := s.files.Read(r.Path)
	if err != nil {
		return nil, &apperr.StoreError{Op: "read", Path: r.Path, Err: err}
	}
	return data, nil
}

// Write stores content as the note for videoID. Content identical to the
// recorded hash, with the file on disk still matching, is not rewritten and
// changed is false. The file path is
// chosen on first write and kept for the life of the record.
func (s *Store) Write(videoID string, content []byte) (*models.NoteRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := checksum.Sum(content)
	prev, err := s.record(videoID)
	if err != nil {
		return nil, false, err
	}

	title := videoID
	if res, err := parser.Parse(content); err == nil && res.Title != "" {
		title = res.Title
	}

	var p string
	if prev != nil {
		p = prev.Path
		if prev.Checksum == sum {
			if disk, err := s.files.Read(p); err == nil && checksum.Matches(disk, sum) {
				nr := toNoteRecord(*prev)
				return &nr, false, nil
			}
		}
	} else {
		p = NotePath(videoID, title)
	}

	if err := s.files.Write(p, content); err != nil {
		return nil, false, &apperr.StoreError{Op: "write", Path: p, Err: err}
	}
	rec := index.Record{
		VideoID:       videoID,
		Path:          p,
		Title:         title,
		Checksum:      sum,
		SynthesizedAt: s.now().UTC(),
	}
	if err := s.ledger.UpsertRecord(rec); err != nil {
		return nil, false, &apperr.StoreError{Op: "record", Path: p, Err: err}
	}
	s.logger.Debug("notestore: wrote note", slog.String("id", videoID), slog.String("path", p))
	nr := toNoteRecord(rec)
	return &nr, true, nil
}

// WriteIndex renders idx and replaces the index note at the notes root.
// Identical content is left untouched. It returns the note's path.
func (s *Store) WriteIndex(idx models.IndexNote) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := IndexPath(idx)
	content := notefmt.RenderIndex(idx)

	present, err := s.files.Exists(p)
	if err != nil {
		return "", &apperr.StoreError{Op: "stat", Path: p, Err: err}
	}
	if present {
		old, err := s.files.Read(p)
		if err == nil && bytes.Equal(old, content) {
			return p, nil
		}
	}
	if err := s.files.Write(p, content); err != nil {
		return "", &apperr.StoreError{Op: "write index", Path: p, Err: err}
	}
	s.logger.Debug("notestore: wrote index", slog.String("path", p), slog.Int("links", len(idx.Links)))
	return p, nil
}

// Records returns every ledger record ordered by path.
func (s *Store) Records() ([]models.NoteRecord, error) {
	rows, _, err := s.ledger.ListRecords(0, 0)
	if err != nil {
		return nil, &apperr.StoreError{Op: "list", Err: err}
	}
	out := make([]models.NoteRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, toNoteRecord(r))
	}
	return out, nil
}

// List returns a page of ledger entries with their titles and the total count.
func (s *Store) List(limit, offset int) ([]Summary, int, error) {
	rows, total, err := s.ledger.ListRecords(limit, offset)
	if err != nil {
		return nil, 0, &apperr.StoreError{Op: "list", Err: err}
	}
	out := make([]Summary, 0, len(rows))
	for _, r := range rows {
		out = append(out, Summary{NoteRecord: toNoteRecord(r), Title: r.Title})
	}
	return out, total, nil
}

// Reconcile rebuilds the ledger from the id frontmatter of the notes on disk.
func (s *Store) Reconcile() ([]index.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changes, err := index.Sync(s.ledger, s.files, s.logger)
	if err != nil {
		return nil, &apperr.StoreError{Op: "reconcile", Err: err}
	}
	return changes, nil
}

// NotePath is the path a new note for videoID is written to.
func NotePath(videoID, title string) string {
	name := notefmt.SafeName(title)
	if name == "" || name == videoID {
		return path.Join(VideosDir, videoID+".md")
	}
	return path.Join(VideosDir, name+" - "+videoID+".md")
}

// IndexPath is the path of the index note for idx.
func IndexPath(idx models.IndexNote) string {
	name := notefmt.SafeName(idx.Title)
	if name == "" {
		name = notefmt.SafeName(idx.PlaylistID)
	}
	if name == "" {
		name = "Playlist"
	}
	return name + ".md"
}

func toNoteRecord(r index.Record) models.NoteRecord {
	return models.NoteRecord{
		VideoID:           r.VideoID,
		FilePath:          r.Path,
		ContentHash:       r.Checksum,
		LastSynthesizedAt: r.SynthesizedAt,
	}
}
