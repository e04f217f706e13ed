// Package storage provides the file-system abstraction used for exports and the
// Markdown inbox.
package storage

import "time"

// File describes one Markdown document in a directory.
type File struct {
	Path     string    `json:"path"`
	Checksum string    `json:"checksum"`
	ModTime  time.Time `json:"mod_time"`
}

// Provider is the interface for document file operations.
type Provider interface {
	// Root returns the absolute directory all paths are relative to.
	Root() string
	// List returns the .md files directly inside dir (relative to root), sorted by path.
	List(dir string) ([]File, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to root).
	Move(oldPath, newPath string) error
}
