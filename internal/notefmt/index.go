package notefmt

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/starford/tubenotes/internal/models"
)

type indexHeader struct {
	Title    string `yaml:"title"`
	Playlist string `yaml:"playlist,omitempty"`
	Source   string `yaml:"source,omitempty"`
	Format   int    `yaml:"note_format"`
}

// RenderIndex renders the playlist table of contents. Rows follow idx.Links order.
func RenderIndex(idx models.IndexNote) []byte {
	var buf bytes.Buffer
	writeFrontmatter(&buf, indexHeader{
		Title:    idx.Title,
		Playlist: idx.PlaylistID,
		Source:   idx.Source,
		Format:   FormatVersion,
	})

	fmt.Fprintf(&buf, "# %s\n\n", idx.Title)
	buf.WriteString("| # | Thumbnail | Title & Duration |\n")
	buf.WriteString("|---|-----------|------------------|\n")
	for i, l := range idx.Links {
		thumb := ""
		if l.ThumbnailURL != "" {
			thumb = fmt.Sprintf("![](%s)", l.ThumbnailURL)
		}
		duration := "N/A"
		if l.DurationSeconds != nil {
			duration = FormatDuration(*l.DurationSeconds)
		}
		fmt.Fprintf(&buf, "| %d | %s | [[%s\\|%s]]<br>⏱ %s |\n",
			i+1, thumb, LinkTarget(l.Path), escapeCell(l.Title), duration)
	}
	return buf.Bytes()
}

// LinkTarget converts a note path into a wikilink target: forward slashes,
// no .md extension.
func LinkTarget(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.TrimSuffix(path, ".md")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "]]", "] ]")
	return strings.ReplaceAll(s, "\n", " ")
}
