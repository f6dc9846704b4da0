// Package models defines the domain types for tubenotes.
package models

import (
	"slices"
	"strings"
	"time"
)

// VideoReference is one member of a resolved playlist.
type VideoReference struct {
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// VideoMetadata is the normalized metadata of a single video.
// Optional fields are nil or empty when the provider did not report them.
type VideoMetadata struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Channel         string     `json:"channel"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
	ThumbnailURL    string     `json:"thumbnail_url,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
}

// NoteRecord describes a note already persisted in the notes directory.
type NoteRecord struct {
	VideoID           string    `json:"video_id"`
	FilePath          string    `json:"file_path"`
	ContentHash       string    `json:"content_hash"`
	LastSynthesizedAt time.Time `json:"last_synthesized_at"`
}

// IndexLink is one row of an index note.
type IndexLink struct {
	VideoID         string
	Path            string // relative to the notes directory
	Title           string
	DurationSeconds *int
	ThumbnailURL    string
}

// IndexNote is the table of contents of one playlist.
type IndexNote struct {
	Title      string
	PlaylistID string
	Source     string
	Links      []IndexLink
}

// NormalizeTags returns tags as a set: trimmed, non-empty, de-duplicated and sorted.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
