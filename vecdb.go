// Package vecdb provides an embedded vector database for Go.
//
// Vecdb persists vector records in a single-file transactional store and
// answers approximate nearest-neighbor (ANN) similarity queries over them,
// optionally scoped to a named collection:
//
//   - Two index strategies: Graph (single-layer ANN graph, default) and
//     Flat (exact brute-force)
//   - Batch insert with a lazily fixed embedding dimension
//   - Threshold-filtered search with collection scoping
//   - Verbatim single-file backup, locally or into a blob store
//   - Structured logging (log/slog) and pluggable metrics collection
//
// # Quick Start
//
// Open a database, insert vectors, and search:
//
//	ctx := context.Background()
//	db, err := vecdb.New("./data")
//	if err != nil {
//	    panic(err)
//	}
//	defer db.Close()
//
//	ids, err := db.InsertVectors(ctx, []*record.Record{
//	    record.New([]float32{1, 0, 0}).WithCollection("docs"),
//	    record.New([]float32{0, 1, 0}).WithCollection("docs"),
//	})
//
//	results, err := db.Search(ctx, []float32{1, 0.1, 0.1}, 2, 0.0)
//
// The first accepted insert fixes the embedding dimension for the lifetime
// of the instance; later records with a different length are rejected.
package vecdb

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vecdb/vecdb/blobstore"
	"github.com/vecdb/vecdb/index"
	"github.com/vecdb/vecdb/index/flat"
	"github.com/vecdb/vecdb/index/graph"
	"github.com/vecdb/vecdb/record"
	"github.com/vecdb/vecdb/storage"
)

// DB is an embedded vector database pairing a persistent record store with
// an in-memory similarity index.
//
// The index is guarded by a single reader-writer lock: a batch insert holds
// the write lock for its entire duration and blocks concurrent searches.
// Store isolation is delegated to the backing engine's transactions.
type DB struct {
	store   storage.Store
	mu      sync.RWMutex // guards idx and dimensions
	idx     index.Index
	closed  atomic.Bool
	metrics MetricsCollector
	logger  *Logger

	// dimensions is fixed by the first accepted insert and never persisted.
	// Zero means no insert has been validated yet.
	dimensions int
}

// Stats is a snapshot of database-level figures.
type Stats struct {
	// TotalVectors is the number of persisted records.
	TotalVectors int `json:"total_vectors"`
	// SizeBytes is the on-disk size of the backing data file.
	SizeBytes int64 `json:"size_bytes"`
	// Dimensions is the fixed embedding dimension, or a sampled one when no
	// insert has been validated by this instance yet. Zero for an empty store.
	Dimensions int `json:"dimensions"`
}

// New opens (or creates) a database rooted at dataDir.
func New(dataDir string, optFns ...Option) (*DB, error) {
	opts := applyOptions(optFns)

	storeOpts := append([]func(*storage.Options){func(o *storage.Options) {
		o.Codec = opts.codec
	}}, opts.storeOptions...)

	bolt, err := storage.NewBoltStore(dataDir, storeOpts...)
	if err != nil {
		return nil, err
	}

	var store storage.Store = bolt

	if opts.readCacheSize > 0 {
		cached, err := storage.NewCachedStore(store, opts.readCacheSize)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		store = cached
	}

	var idx index.Index
	switch opts.indexKind {
	case index.KindFlat:
		idx = flat.New()
	default:
		idx = graph.New(opts.graphOptions...)
	}

	return &DB{
		store:   store,
		idx:     idx,
		metrics: opts.metricsCollector,
		logger:  opts.logger,
	}, nil
}

// InsertVectors persists and indexes the given records as one batch.
//
// The index write lock is held for the whole batch. Records are processed
// in order; the first record whose embedding length differs from the fixed
// dimension stops the batch with *ErrDimensionMismatch. Records accepted
// before the failure stay persisted and indexed; nothing is rolled back.
// The returned slice holds the ids of all accepted records, alongside any
// error.
func (db *DB) InsertVectors(ctx context.Context, records []*record.Record) ([]string, error) {
	if db.closed.Load() {
		return nil, ErrClosed
	}

	start := time.Now()

	db.mu.Lock()
	defer db.mu.Unlock()

	ids := make([]string, 0, len(records))

	var err error

	for _, rec := range records {
		if err = db.insertOne(ctx, rec); err != nil {
			break
		}

		ids = append(ids, rec.ID)
	}

	db.logger.LogBatchInsert(ctx, len(records), len(ids), err)
	db.metrics.RecordBatchInsert(len(records), len(ids), time.Since(start))

	return ids, err
}

// insertOne validates, persists, and indexes a single record. The caller
// must hold the index write lock.
func (db *DB) insertOne(ctx context.Context, rec *record.Record) (err error) {
	defer func() { db.logger.LogInsert(ctx, rec.ID, rec.Dimensions(), err) }()

	if db.dimensions != 0 && rec.Dimensions() != db.dimensions {
		return &ErrDimensionMismatch{
			Expected: db.dimensions,
			Actual:   rec.Dimensions(),
		}
	}

	if err := db.store.StoreVector(ctx, rec); err != nil {
		return fmt.Errorf("persist record %s: %w", rec.ID, err)
	}

	if err := db.idx.Add(rec.ID, rec.Embedding); err != nil {
		return fmt.Errorf("index record %s: %w", rec.ID, err)
	}

	if db.dimensions == 0 {
		db.dimensions = rec.Dimensions()
	}

	return nil
}

// GetVector fetches a record by id. It reports whether the id existed.
func (db *DB) GetVector(ctx context.Context, id string) (*record.Record, bool, error) {
	if db.closed.Load() {
		return nil, false, ErrClosed
	}

	return db.store.GetVector(ctx, id)
}

// DeleteVector removes a record from the store and the index, reporting
// whether the id existed.
//
// The store is consulted first; the index entry is only removed after the
// store confirms the id existed, so the index never holds an id the store
// never had.
func (db *DB) DeleteVector(ctx context.Context, id string) (bool, error) {
	if db.closed.Load() {
		return false, ErrClosed
	}

	start := time.Now()

	existed, err := db.store.DeleteVector(ctx, id)
	if err == nil && existed {
		db.mu.Lock()
		_, err = db.idx.Remove(id)
		db.mu.Unlock()
	}

	db.logger.LogDelete(ctx, id, existed, err)
	db.metrics.RecordDelete(time.Since(start), err)

	return existed, err
}

// Stats reports record count, on-disk size, and embedding dimension.
//
// When no insert has fixed the dimension yet (e.g. right after reopening an
// existing data file), the dimension is sampled from one arbitrary stored
// record without fixing it.
func (db *DB) Stats(ctx context.Context) (Stats, error) {
	if db.closed.Load() {
		return Stats{}, ErrClosed
	}

	count, err := db.store.CountVectors(ctx)
	if err != nil {
		return Stats{}, err
	}

	size, err := db.store.SizeBytes(ctx)
	if err != nil {
		return Stats{}, err
	}

	db.mu.RLock()
	dimensions := db.dimensions
	db.mu.RUnlock()

	if dimensions == 0 && count > 0 {
		rec, ok, err := db.store.GetFirstVector(ctx)
		if err != nil {
			return Stats{}, err
		}

		if ok {
			dimensions = rec.Dimensions()
		}
	}

	return Stats{
		TotalVectors: count,
		SizeBytes:    size,
		Dimensions:   dimensions,
	}, nil
}

// Compact asks the backing engine to reclaim space. It may be a no-op.
func (db *DB) Compact(ctx context.Context) error {
	if db.closed.Load() {
		return ErrClosed
	}

	return db.store.Compact(ctx)
}

// Backup copies the backing data file verbatim into the target directory.
func (db *DB) Backup(ctx context.Context, dir string) error {
	if db.closed.Load() {
		return ErrClosed
	}

	err := db.store.Backup(ctx, dir)
	db.logger.LogBackup(ctx, dir, err)

	return err
}

// BackupToBlobStore streams a consistent snapshot of the backing data file
// into the given blob store under the given name.
func (db *DB) BackupToBlobStore(ctx context.Context, bs blobstore.Store, name string) error {
	if db.closed.Load() {
		return ErrClosed
	}

	pr, pw := io.Pipe()

	go func() {
		_, err := db.store.WriteTo(ctx, pw)
		_ = pw.CloseWithError(err)
	}()

	err := bs.Put(ctx, name, pr)
	if err != nil {
		// Unblock the snapshot writer if Put bailed early.
		_ = pr.CloseWithError(err)
	}

	db.logger.LogBackup(ctx, name, err)

	return err
}

// ListCollections returns the distinct collection tags across all records.
func (db *DB) ListCollections(ctx context.Context) ([]string, error) {
	if db.closed.Load() {
		return nil, ErrClosed
	}

	return db.store.ListCollections(ctx)
}

// VectorsInCollection returns every record tagged with the given collection.
func (db *DB) VectorsInCollection(ctx context.Context, collection string) ([]*record.Record, error) {
	if db.closed.Load() {
		return nil, ErrClosed
	}

	return db.store.GetVectorsInCollection(ctx, collection)
}

// Close releases the backing store. Further operations return ErrClosed.
func (db *DB) Close() error {
	if db == nil || db.closed.Swap(true) {
		return nil
	}

	return db.store.Close()
}
