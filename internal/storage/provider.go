// Package storage defines the notes directory file-system abstraction.
package storage

import "time"

// FileInfo describes one markdown file under the notes directory.
type FileInfo struct {
	Path      string // relative to the notes root, forward slashes
	Checksum  string
	UpdatedAt time.Time
}

// Provider is the interface for note file operations. All paths are
// relative to the notes root.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path with content.
	Write(path string, content []byte) error
	// Exists reports whether a regular file is present at path.
	Exists(path string) (bool, error)
}
