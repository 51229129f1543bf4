package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	bolt "go.etcd.io/bbolt"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/vecdb/vecdb/codec"
	"github.com/vecdb/vecdb/record"
)

// Compile-time check to ensure BoltStore satisfies the Store interface.
var _ Store = (*BoltStore)(nil)

// DataFileName is the name of the single backing data file.
const DataFileName = "vectors.db"

var (
	bucketVectors = []byte("vectors")

	// bucketMeta is reserved for future schema metadata; no core operation
	// populates it.
	bucketMeta = []byte("meta")
)

// Options contains configuration options for the bolt-backed store.
type Options struct {
	// Codec encodes records into self-describing blobs. Defaults to
	// codec.Default when nil.
	Codec codec.Codec

	// MaxConcurrentTxns bounds the number of engine transactions in flight.
	MaxConcurrentTxns int64

	// BackupBytesPerSec throttles backup streaming. 0 disables throttling.
	BackupBytesPerSec int

	// FileMode is the permission mode of the data file.
	FileMode os.FileMode
}

// DefaultOptions contains the default configuration options for the store.
var DefaultOptions = Options{
	Codec:             nil,
	MaxConcurrentTxns: 64,
	BackupBytesPerSec: 0,
	FileMode:          0o600,
}

// BoltStore persists records in a single-file embedded transactional
// key-value engine with two buckets: "vectors" (id to record blob) and
// "meta" (reserved).
type BoltStore struct {
	db      *bolt.DB
	path    string
	codec   codec.Codec
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

// NewBoltStore opens (or creates) the data file inside dataDir.
func NewBoltStore(dataDir string, optFns ...func(o *Options)) (*BoltStore, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	c := opts.Codec
	if c == nil {
		c = codec.Default
	}

	if opts.MaxConcurrentTxns <= 0 {
		opts.MaxConcurrentTxns = DefaultOptions.MaxConcurrentTxns
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create data dir: %w", err)
	}

	path := filepath.Join(dataDir, DataFileName)

	db, err := bolt.Open(path, opts.FileMode, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketVectors); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: initialize buckets: %w", err)
	}

	var limiter *rate.Limiter
	if opts.BackupBytesPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.BackupBytesPerSec), opts.BackupBytesPerSec)
	}

	return &BoltStore{
		db:      db,
		path:    path,
		codec:   c,
		sem:     semaphore.NewWeighted(opts.MaxConcurrentTxns),
		limiter: limiter,
	}, nil
}

// Path returns the location of the backing data file.
func (s *BoltStore) Path() string {
	return s.path
}

// acquire reserves an admission slot for a blocking engine call.
func (s *BoltStore) acquire(ctx context.Context) (func(), error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("storage: acquire transaction slot: %w", err)
	}
	return func() { s.sem.Release(1) }, nil
}

// StoreVector upserts a record keyed by its id.
func (s *BoltStore) StoreVector(ctx context.Context, rec *record.Record) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	data, err := s.codec.Marshal(rec)
	if err != nil {
		return fmt.Errorf("storage: encode record %s: %w", rec.ID, err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketVectors).Put([]byte(rec.ID), data)
	})
	if err != nil {
		return fmt.Errorf("storage: store record %s: %w", rec.ID, err)
	}

	return nil
}

// GetVector fetches a record by id.
func (s *BoltStore) GetVector(ctx context.Context, id string) (*record.Record, bool, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, false, err
	}
	defer release()

	var rec *record.Record

	err = s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketVectors).Get([]byte(id))
		if data == nil {
			return nil
		}

		rec = &record.Record{}
		return s.codec.Unmarshal(data, rec)
	})
	if err != nil {
		return nil, false, fmt.Errorf("storage: get record %s: %w", id, err)
	}

	return rec, rec != nil, nil
}

// DeleteVector removes a record by id and reports whether it existed.
func (s *BoltStore) DeleteVector(ctx context.Context, id string) (bool, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer release()

	var existed bool

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		if b.Get([]byte(id)) == nil {
			return nil
		}
		existed = true
		return b.Delete([]byte(id))
	})
	if err != nil {
		return false, fmt.Errorf("storage: delete record %s: %w", id, err)
	}

	return existed, nil
}

// CountVectors returns the total number of stored records.
func (s *BoltStore) CountVectors(ctx context.Context) (int, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	var count int

	err = s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(bucketVectors).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("storage: count records: %w", err)
	}

	return count, nil
}

// SizeBytes returns the on-disk size of the data file.
func (s *BoltStore) SizeBytes(ctx context.Context) (int64, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0, fmt.Errorf("storage: stat %s: %w", s.path, err)
	}
	return info.Size(), nil
}

// Compact is a no-op: the backing engine reclaims freed pages internally
// during normal write transactions.
func (s *BoltStore) Compact(ctx context.Context) error {
	return nil
}

// WriteTo streams a consistent snapshot of the data file to w, throttled by
// the configured byte limiter when one is set.
func (s *BoltStore) WriteTo(ctx context.Context, w io.Writer) (int64, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	if s.limiter != nil {
		w = &throttledWriter{ctx: ctx, w: w, limiter: s.limiter}
	}

	var n int64

	err = s.db.View(func(tx *bolt.Tx) error {
		var err error
		n, err = tx.WriteTo(w)
		return err
	})
	if err != nil {
		return n, fmt.Errorf("storage: write snapshot: %w", err)
	}

	return n, nil
}

// Backup copies the data file verbatim into dir under the same file name.
// The copy runs inside a read transaction, so it is a consistent snapshot
// even while writes continue.
func (s *BoltStore) Backup(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: create backup dir: %w", err)
	}

	target := filepath.Join(dir, DataFileName)

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("storage: create backup file: %w", err)
	}

	if _, err := s.WriteTo(ctx, f); err != nil {
		_ = f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("storage: close backup file: %w", err)
	}

	return nil
}

// ListCollections scans all records and returns the distinct collection
// tags in sorted order. Untagged records are discarded.
func (s *BoltStore) ListCollections(ctx context.Context) ([]string, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	seen := make(map[string]struct{})

	err = s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketVectors).ForEach(func(_, data []byte) error {
			var rec record.Record
			if err := s.codec.Unmarshal(data, &rec); err != nil {
				return err
			}
			if rec.Collection != "" {
				seen[rec.Collection] = struct{}{}
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list collections: %w", err)
	}

	collections := make([]string, 0, len(seen))
	for collection := range seen {
		collections = append(collections, collection)
	}
	sort.Strings(collections)

	return collections, nil
}

// GetVectorsInCollection scans all records and returns those tagged with
// the given collection.
func (s *BoltStore) GetVectorsInCollection(ctx context.Context, collection string) ([]*record.Record, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var records []*record.Record

	err = s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketVectors).ForEach(func(_, data []byte) error {
			var rec record.Record
			if err := s.codec.Unmarshal(data, &rec); err != nil {
				return err
			}
			if rec.Collection == collection {
				records = append(records, &rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("storage: scan collection %s: %w", collection, err)
	}

	return records, nil
}

// GetFirstVector returns one arbitrary record in engine iteration order.
func (s *BoltStore) GetFirstVector(ctx context.Context) (*record.Record, bool, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, false, err
	}
	defer release()

	var rec *record.Record

	err = s.db.View(func(tx *bolt.Tx) error {
		_, data := tx.Bucket(bucketVectors).Cursor().First()
		if data == nil {
			return nil
		}

		rec = &record.Record{}
		return s.codec.Unmarshal(data, rec)
	})
	if err != nil {
		return nil, false, fmt.Errorf("storage: get first record: %w", err)
	}

	return rec, rec != nil, nil
}

// Close releases the backing engine.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// throttledWriter paces writes through a byte-rate limiter.
type throttledWriter struct {
	ctx     context.Context
	w       io.Writer
	limiter *rate.Limiter
}

func (t *throttledWriter) Write(p []byte) (int, error) {
	var written int

	for len(p) > 0 {
		chunk := p
		if burst := t.limiter.Burst(); len(chunk) > burst {
			chunk = chunk[:burst]
		}

		if err := t.limiter.WaitN(t.ctx, len(chunk)); err != nil {
			return written, err
		}

		n, err := t.w.Write(chunk)
		written += n
		if err != nil {
			return written, err
		}

		p = p[n:]
	}

	return written, nil
}
