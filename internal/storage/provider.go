// Package storage writes exported notes to a directory tree.
package storage

import "time"

// File describes one exported file.
type File struct {
	Path      string // relative to the export root, slash separated
	Checksum  string
	UpdatedAt time.Time
}

// Provider is the interface for export file operations.
type Provider interface {
	// List returns every .md file under dir (relative to the root).
	List(dir string) ([]File, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
}
