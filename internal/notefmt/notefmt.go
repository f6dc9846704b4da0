// Package notefmt renders and parses the note files consumed by the media
// viewer plugin. The frontmatter layout is a versioned contract: keys are
// written in a fixed order so identical metadata always yields identical bytes.
package notefmt

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/tubenotes/internal/models"
	"github.com/starford/tubenotes/internal/parser"
	"github.com/starford/tubenotes/internal/videoid"
)

// FormatVersion is written to every note as note_format.
const FormatVersion = 1

// ErrNoHeader is returned by Parse when the note has no frontmatter block.
var ErrNoHeader = errors.New("notefmt: missing frontmatter header")

// header is the video note frontmatter. Field order is the on-disk key order.
type header struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title"`
	Channel   string   `yaml:"channel,omitempty"`
	MediaLink string   `yaml:"media_link"`
	Published string   `yaml:"published,omitempty"`
	Duration  string   `yaml:"duration,omitempty"`
	Thumbnail string   `yaml:"thumbnail,omitempty"`
	Tags      []string `yaml:"tags,omitempty"`
	Format    int      `yaml:"note_format"`
}

// Render returns the complete note for m. The output depends only on m.
func Render(m models.VideoMetadata) []byte {
	h := header{
		ID:        m.ID,
		Title:     m.Title,
		Channel:   m.Channel,
		MediaLink: videoid.WatchURL(m.ID),
		Thumbnail: m.ThumbnailURL,
		Tags:      models.NormalizeTags(m.Tags),
		Format:    FormatVersion,
	}
	if m.PublishedAt != nil {
		h.Published = m.PublishedAt.UTC().Format(time.RFC3339)
	}
	if m.DurationSeconds != nil {
		h.Duration = FormatDuration(*m.DurationSeconds)
	}

	var buf bytes.Buffer
	writeFrontmatter(&buf, h)

	fmt.Fprintf(&buf, "# %s\n\n", m.Title)
	if m.ThumbnailURL != "" {
		fmt.Fprintf(&buf, "![thumbnail](%s)\n\n", m.ThumbnailURL)
	}
	if m.Channel != "" {
		fmt.Fprintf(&buf, "- Channel: %s\n", m.Channel)
	}
	if m.DurationSeconds != nil {
		fmt.Fprintf(&buf, "- Duration: %s\n", FormatDuration(*m.DurationSeconds))
	}
	if m.PublishedAt != nil {
		fmt.Fprintf(&buf, "- Published: %s\n", m.PublishedAt.UTC().Format(time.DateOnly))
	}
	fmt.Fprintf(&buf, "- Link: %s\n", videoid.WatchURL(m.ID))
	return buf.Bytes()
}

// Parse recovers the VideoMetadata written by Render from a note's header.
func Parse(data []byte) (*models.VideoMetadata, error) {
	block, _, ok := parser.Split(data)
	if !ok {
		return nil, ErrNoHeader
	}
	var h header
	if err := yaml.Unmarshal(block, &h); err != nil {
		return nil, fmt.Errorf("notefmt: decode header: %w", err)
	}
	if h.ID == "" {
		return nil, fmt.Errorf("notefmt: header has no id")
	}

	m := &models.VideoMetadata{
		ID:           h.ID,
		Title:        h.Title,
		Channel:      h.Channel,
		ThumbnailURL: h.Thumbnail,
		Tags:         models.NormalizeTags(h.Tags),
	}
	if h.Published != "" {
		t, err := time.Parse(time.RFC3339, h.Published)
		if err != nil {
			return nil, fmt.Errorf("notefmt: published: %w", err)
		}
		t = t.UTC()
		m.PublishedAt = &t
	}
	if h.Duration != "" {
		secs, err := ParseDuration(h.Duration)
		if err != nil {
			return nil, err
		}
		m.DurationSeconds = &secs
	}
	return m, nil
}

// FormatDuration renders seconds as H:MM:SS from one hour upwards, M:SS below.
func FormatDuration(secs int) string {
	if secs < 0 {
		secs = 0
	}
	h, m, s := secs/3600, (secs%3600)/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ParseDuration is the inverse of FormatDuration.
func ParseDuration(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("notefmt: invalid duration %q", s)
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("notefmt: invalid duration %q", s)
		}
		total = total*60 + n
	}
	return total, nil
}

func writeFrontmatter(buf *bytes.Buffer, v any) {
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	// Encoding a struct of strings, ints and string slices cannot fail.
	_ = enc.Encode(v)
	_ = enc.Close()
	buf.WriteString("---\n\n")
}
