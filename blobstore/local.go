package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Compile-time check to ensure LocalStore satisfies the Store interface.
var _ Store = (*LocalStore)(nil)

// LocalStore implements Store using the local file system.
type LocalStore struct {
	root string
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Put writes the blob to a temporary file and renames it into place, so a
// reader never observes a partial blob.
func (s *LocalStore) Put(ctx context.Context, name string, r io.Reader) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("blobstore: create root: %w", err)
	}

	tmp, err := os.CreateTemp(s.root, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("blobstore: create temp blob: %w", err)
	}

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("blobstore: write blob %s: %w", name, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("blobstore: close blob %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.root, name)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("blobstore: publish blob %s: %w", name, err)
	}

	return nil
}

// Open opens a blob for reading.
func (s *LocalStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}
