// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/bedrock/internal/models"

// Provider is the interface for vault file operations. All paths are
// slash-separated and relative to the vault root.
type Provider interface {
	// Root returns the absolute, slash-separated vault root.
	Root() string
	// List returns metadata for every .md file under dir, sorted by path.
	// Entries whose name starts with '.' are skipped.
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path. Missing files match
	// apperr.ErrNotFound.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath, failing with apperr.ErrAlreadyExists
	// rather than replacing another file.
	Move(oldPath, newPath string) error
	// Exists reports whether a file exists at path.
	Exists(path string) bool
}
