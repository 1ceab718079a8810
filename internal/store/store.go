// Package store persists generation artifacts in a blob store organized as
// folders of named files. Folders are key prefixes; Put has upsert semantics.
package store

import "context"

// File describes one stored object.
type File struct {
	ID       string
	Name     string
	MimeType string
}

// Store is the blob store contract the pipeline persists through.
type Store interface {
	// FindOrCreateFolder resolves the folder name under parentID, creating
	// it when absent, and returns its ID. Idempotent.
	FindOrCreateFolder(ctx context.Context, name, parentID string) (string, error)

	// List returns the files directly under parentID. When mimeFilter is
	// non-empty only files whose mime type contains it are returned.
	List(ctx context.Context, parentID, mimeFilter string) ([]File, error)

	// Get downloads a file's content by ID.
	Get(ctx context.Context, id string) ([]byte, error)

	// Put uploads data under parentID as name, replacing any file with the
	// same name.
	Put(ctx context.Context, name string, data []byte, mimeType, parentID string) error
}
