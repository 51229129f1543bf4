// Package storage provides the persistent store for vector records.
//
// The canonical implementation is BoltStore, backed by a single-file
// embedded transactional key-value engine. Concurrency safety is delegated
// to the engine's transaction isolation; an admission semaphore bounds the
// number of blocking engine calls in flight so that concurrent non-blocking
// callers stay responsive while a write transaction commits.
package storage

import (
	"context"
	"io"

	"github.com/vecdb/vecdb/record"
)

// Store is the capability interface of the persistence layer.
//
// Absent ids are reported through the boolean results, never as errors.
// Every scan-based operation (ListCollections, GetVectorsInCollection,
// GetFirstVector) is O(n) in total records and pays full deserialization
// cost per record; no secondary index is maintained over collection tags.
type Store interface {
	// StoreVector upserts a record keyed by its id.
	StoreVector(ctx context.Context, rec *record.Record) error

	// GetVector fetches a record by id. It reports whether the id existed.
	GetVector(ctx context.Context, id string) (*record.Record, bool, error)

	// DeleteVector removes a record by id and reports whether it existed.
	DeleteVector(ctx context.Context, id string) (bool, error)

	// CountVectors returns the total number of stored records.
	CountVectors(ctx context.Context) (int, error)

	// SizeBytes returns the on-disk size of the backing data file.
	SizeBytes(ctx context.Context) (int64, error)

	// Compact reclaims space where the backing engine supports it;
	// it may be a no-op.
	Compact(ctx context.Context) error

	// Backup copies the backing data file verbatim into the target
	// directory under the same file name.
	Backup(ctx context.Context, dir string) error

	// WriteTo streams a consistent snapshot of the backing data file to w.
	WriteTo(ctx context.Context, w io.Writer) (int64, error)

	// ListCollections returns the distinct collection tags across all
	// records, discarding records with no tag.
	ListCollections(ctx context.Context) ([]string, error)

	// GetVectorsInCollection returns every record tagged with the given
	// collection.
	GetVectorsInCollection(ctx context.Context, collection string) ([]*record.Record, error)

	// GetFirstVector returns one arbitrary record in backing-engine
	// iteration order. It reports whether the store holds any record at
	// all. Iteration order carries no semantic guarantee.
	GetFirstVector(ctx context.Context) (*record.Record, bool, error)

	// Close releases the backing engine.
	Close() error
}
