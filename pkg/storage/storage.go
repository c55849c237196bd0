// Package storage archives the raw statement files users upload, so an
// ingest can be audited or replayed later.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// FileInfo contains metadata about a stored statement
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	IngestID    uuid.UUID `json:"ingest_id"`
	Name        string    `json:"name"`
	Source      string    `json:"source"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // Internal storage path
	CreatedAt   time.Time `json:"created_at"`
}

// Upload describes a file to archive.
type Upload struct {
	IngestID    uuid.UUID
	Name        string
	Source      string
	ContentType string
}

// Storage defines the interface for statement archive operations
type Storage interface {
	// Save stores a file and returns its metadata
	Save(ctx context.Context, userID string, u Upload, r io.Reader) (*FileInfo, error)

	// Open returns a reader for a stored file and its metadata
	Open(ctx context.Context, userID string, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// List returns all files for a user, oldest first
	List(ctx context.Context, userID string) ([]*FileInfo, error)
}
