// Package storage provides scratch-file handling and optional S3 upload
// for batch artifacts (padded audio, output videos).
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for artifact storage. Implementations
// handle files produced during a run and optionally support S3 uploads
// for finished output videos.
type Storage interface {
	// Open reads a file and returns a reader.
	// The caller is responsible for closing the returned ReadCloser.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Cleanup removes the specified files.
	// It continues cleanup even if some files fail to delete.
	Cleanup(ctx context.Context, paths []string) error

	// Upload uploads data to S3 under key and returns the public URL.
	// Returns ErrS3NotConfigured if S3 is not configured.
	Upload(ctx context.Context, key string, data io.Reader) (url string, err error)
}
