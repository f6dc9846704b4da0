// Package noteservice is the read side of the notes directory shared by the
// HTTP API and the MCP server.
package noteservice

import (
	"context"
	"time"

	"github.com/starford/tubenotes/internal/apperr"
	"github.com/starford/tubenotes/internal/models"
	"github.com/starford/tubenotes/internal/notefmt"
	"github.com/starford/tubenotes/internal/notestore"
	"github.com/starford/tubenotes/internal/parser"
)

// NoteDetail is the full representation of a video note.
type NoteDetail struct {
	VideoID     string                `json:"video_id"`
	Path        string                `json:"path"`
	Title       string                `json:"title"`
	Content     string                `json:"content"`
	Checksum    string                `json:"checksum"`
	Tags        []string              `json:"tags"`
	Frontmatter map[string]any        `json:"frontmatter,omitempty"`
	Metadata    *models.VideoMetadata `json:"metadata,omitempty"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	VideoID   string    `json:"video_id"`
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reader is the part of the note store the service reads from.
type Reader interface {
	ReadRecord(videoID string) (*models.NoteRecord, error)
	ReadNote(videoID string) ([]byte, error)
	List(limit, offset int) ([]notestore.Summary, int, error)
}

// Service serves synthesized notes.
type Service struct {
	store Reader
}

// NewService creates a new note service.
func NewService(store Reader) *Service {
	return &Service{store: store}
}

// GetNote returns the note for videoID with its parsed metadata.
func (s *Service) GetNote(_ context.Context, videoID string) (*NoteDetail, error) {
	rec, err := s.store.ReadRecord(videoID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.ErrNotFound
	}
	data, err := s.store.ReadNote(videoID)
	if err != nil {
		return nil, err
	}
	return buildNoteDetail(*rec, data)
}

// ListNotes returns a page of notes ordered by path.
func (s *Service) ListNotes(_ context.Context, limit, offset int) ([]NoteListItem, int, error) {
	rows, total, err := s.store.List(limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			VideoID:   r.VideoID,
			Path:      r.FilePath,
			Title:     r.Title,
			Checksum:  r.ContentHash,
			UpdatedAt: r.LastSynthesizedAt,
		}
	}
	return items, total, nil
}

func buildNoteDetail(rec models.NoteRecord, data []byte) (*NoteDetail, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	d := &NoteDetail{
		VideoID:     rec.VideoID,
		Path:        rec.FilePath,
		Title:       res.Title,
		Content:     string(data),
		Checksum:    rec.ContentHash,
		Tags:        nonNilSlice(res.Tags),
		Frontmatter: res.Frontmatter,
		UpdatedAt:   rec.LastSynthesizedAt,
	}
	// Notes edited by hand may no longer parse; the raw content is still served.
	if meta, err := notefmt.Parse(data); err == nil {
		d.Metadata = meta
	}
	return d, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
