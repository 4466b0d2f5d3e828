// Package storage defines the content file-system abstraction.
package storage

import "github.com/starford/frontdate/internal/models"

// Provider is the interface for content file operations. Paths are relative
// to the provider root.
type Provider interface {
	// List returns every regular file under dir.
	List(dir string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path, keeping its permissions.
	Write(path string, content []byte) error
	// Abs returns the absolute path for path.
	Abs(path string) (string, error)
}
