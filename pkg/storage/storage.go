// Package storage archives raw statement uploads so imports can be
// replayed against the original file.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// FileInfo contains metadata about an archived file
type FileInfo struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Path       string    `json:"path"` // Internal storage path
	ArchivedAt time.Time `json:"archived_at"`
}

// Storage defines the interface for upload archival
type Storage interface {
	// Save stores a copy of the upload and returns its metadata
	Save(ctx context.Context, userID uuid.UUID, filename string, r io.Reader) (*FileInfo, error)

	// Open returns a reader over an archived file
	Open(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, error)

	// List returns all archived files for a user
	List(ctx context.Context, userID uuid.UUID) ([]*FileInfo, error)

	// Remove deletes an archived file
	Remove(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) error
}
