package parser

import (
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\nid: dQw4w9WgXcQ\ntitle: Hello\ntags:\n  - go\n  - music\n---\n# Hello\nBody text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Title, "Hello")
	}
	if r.ID != "dQw4w9WgXcQ" {
		t.Errorf("id = %q", r.ID)
	}
	if len(r.Tags) != 2 || r.Tags[0] != "go" || r.Tags[1] != "music" {
		t.Errorf("tags = %v, want [go music]", r.Tags)
	}
	if r.Body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	r, err := Parse([]byte("# Just a heading\nSome text.\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
	if r.ID != "" {
		t.Errorf("id = %q, want empty", r.ID)
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	r, err := Parse([]byte("---\n: invalid: yaml: {{{\n---\nBody\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
}

func TestSplit_Unterminated(t *testing.T) {
	_, body, ok := Split([]byte("---\ntitle: x\nno closing"))
	if ok {
		t.Fatal("unterminated frontmatter should not split")
	}
	if body != "---\ntitle: x\nno closing" {
		t.Errorf("body = %q", body)
	}
}

func TestParse_IndexNoteBody(t *testing.T) {
	input := []byte("---\ntitle: Course\nplaylist: PL123\nnote_format: 1\n---\n\n# Course\n\n| # | Thumbnail | Title & Duration |\n| 1 |  | [[videos/A - x\\|A]]<br>⏱ 1:00 |\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Course" {
		t.Errorf("title = %q", r.Title)
	}
	if r.ID != "" {
		t.Errorf("index notes carry no id, got %q", r.ID)
	}
	if r.Body != "# Course\n\n| # | Thumbnail | Title & Duration |\n| 1 |  | [[videos/A - x\\|A]]<br>⏱ 1:00 |\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestDeriveTitle_H1Fallback(t *testing.T) {
	title := deriveTitle(nil, "some text\n# My Heading\nmore")
	if title != "My Heading" {
		t.Errorf("title = %q, want %q", title, "My Heading")
	}
}
