// Package parser splits Markdown notes into YAML frontmatter and body and
// extracts the fields the note store and index rely on.
package parser

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Tags        []string
	Title       string
	// ID is the frontmatter "id" value, empty when absent.
	ID string
}

// Parse extracts frontmatter, body, title, id and tags from raw Markdown bytes.
// Invalid or missing frontmatter is not an error: the whole input becomes the body.
func Parse(data []byte) (*Result, error) {
	block, body, ok := Split(data)
	var fm map[string]any
	if ok {
		if err := yaml.Unmarshal(block, &fm); err != nil {
			fm = nil
			body = string(data)
		}
	} else {
		body = string(data)
	}

	return &Result{
		Frontmatter: fm,
		Body:        body,
		Tags:        extractTags(fm),
		Title:       deriveTitle(fm, body),
		ID:          stringField(fm, "id"),
	}, nil
}

// Split separates the YAML block between the leading --- delimiters from the
// Markdown body. ok is false when the data has no complete frontmatter block.
func Split(data []byte) (block []byte, body string, ok bool) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), false
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), false
	}

	block = rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body = strings.TrimLeft(string(afterDelim), "\n\r")
	return block, body, true
}

// extractTags collects the frontmatter "tags" list.
func extractTags(fm map[string]any) []string {
	raw, ok := fm["tags"].([]any)
	if !ok {
		return nil
	}
	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]any, body string) string {
	if s := stringField(fm, "title"); s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

func stringField(fm map[string]any, key string) string {
	s, _ := fm[key].(string)
	return s
}
