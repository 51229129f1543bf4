// Package blobstore provides named-blob sinks used for offsite copies of
// database backups.
package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for writing and reading named blobs.
type Store interface {
	// Put writes the blob under the given name, replacing any previous
	// content atomically.
	Put(ctx context.Context, name string, r io.Reader) error

	// Open opens an existing blob for reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}
