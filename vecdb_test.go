package vecdb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecdb/vecdb/blobstore"
	"github.com/vecdb/vecdb/record"
)

func newTestDB(t *testing.T, optFns ...Option) *DB {
	t.Helper()

	db, err := New(t.TempDir(), optFns...)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	return db
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("AxisVectors", func(t *testing.T) {
		db := newTestDB(t)

		first := record.New([]float32{1, 0, 0})
		ids, err := db.InsertVectors(ctx, []*record.Record{
			first,
			record.New([]float32{0, 1, 0}),
			record.New([]float32{0, 0, 1}),
		})
		require.NoError(t, err)
		require.Len(t, ids, 3)

		results, err := db.Search(ctx, []float32{1, 0.1, 0.1}, 2, 0.0)
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Equal(t, first.ID, results[0].ID)
		assert.Greater(t, results[0].Score, results[1].Score)
	})

	t.Run("LargeDataset", func(t *testing.T) {
		db := newTestDB(t)

		records := make([]*record.Record, 0, 1000)
		for i := 0; i < 1000; i++ {
			theta := float64(i+1) * math.Pi / 2002
			records = append(records, record.New([]float32{
				float32(math.Cos(theta)),
				float32(math.Sin(theta)),
				0,
			}))
		}

		ids, err := db.InsertVectors(ctx, records)
		require.NoError(t, err)
		require.Len(t, ids, 1000)

		results, err := db.Search(ctx, []float32{1, 0, 0}, 10, 0.0)
		require.NoError(t, err)
		require.Len(t, results, 10)

		seen := make(map[string]bool)
		for i, result := range results {
			assert.False(t, seen[result.ID], "duplicate id %s", result.ID)
			seen[result.ID] = true

			if i > 0 {
				assert.Greater(t, results[i-1].Score, result.Score)
			}
		}
	})

	t.Run("Threshold", func(t *testing.T) {
		db := newTestDB(t)

		_, err := db.InsertVectors(ctx, []*record.Record{
			record.New([]float32{1, 0, 0}),
			record.New([]float32{-1, 0, 0}),
		})
		require.NoError(t, err)

		results, err := db.Search(ctx, []float32{1, 0, 0}, 10, 0.5)
		require.NoError(t, err)
		require.Len(t, results, 1)
	})

	t.Run("MetadataCarriedThrough", func(t *testing.T) {
		db := newTestDB(t)

		rec := record.New([]float32{1, 0, 0}).WithMetadata(map[string]string{"source": "unit"})
		_, err := db.InsertVectors(ctx, []*record.Record{rec})
		require.NoError(t, err)

		results, err := db.Search(ctx, []float32{1, 0, 0}, 1, 0.0)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, map[string]string{"source": "unit"}, results[0].Metadata)
	})

	t.Run("EmptyDatabase", func(t *testing.T) {
		db := newTestDB(t)

		results, err := db.Search(ctx, []float32{1, 0, 0}, 5, 0.0)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("InvalidK", func(t *testing.T) {
		db := newTestDB(t)

		_, err := db.Search(ctx, []float32{1, 0, 0}, 0, 0.0)
		require.ErrorIs(t, err, ErrInvalidK)
	})

	t.Run("FlatIndex", func(t *testing.T) {
		db := newTestDB(t, WithFlatIndex())

		first := record.New([]float32{1, 0, 0})
		_, err := db.InsertVectors(ctx, []*record.Record{
			first,
			record.New([]float32{0, 1, 0}),
			record.New([]float32{0, 0, 1}),
		})
		require.NoError(t, err)

		results, err := db.Search(ctx, []float32{1, 0.1, 0.1}, 2, 0.0)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, first.ID, results[0].ID)
	})
}

func TestSearchInCollection(t *testing.T) {
	ctx := context.Background()

	t.Run("FiltersByTag", func(t *testing.T) {
		db := newTestDB(t)

		inA := record.New([]float32{1, 0, 0}).WithCollection("A")
		inB := record.New([]float32{0.9, 0.1, 0}).WithCollection("B")

		_, err := db.InsertVectors(ctx, []*record.Record{inA, inB})
		require.NoError(t, err)

		results, err := db.SearchInCollection(ctx, "A", []float32{1, 0, 0}, 10, 0.0)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, inA.ID, results[0].ID)
	})

	t.Run("UntaggedRecordsExcluded", func(t *testing.T) {
		db := newTestDB(t)

		_, err := db.InsertVectors(ctx, []*record.Record{
			record.New([]float32{1, 0, 0}),
		})
		require.NoError(t, err)

		results, err := db.SearchInCollection(ctx, "A", []float32{1, 0, 0}, 10, 0.0)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("EmptyTag", func(t *testing.T) {
		db := newTestDB(t)

		_, err := db.SearchInCollection(ctx, "", []float32{1, 0, 0}, 10, 0.0)
		require.ErrorIs(t, err, ErrInvalidCollection)
	})
}

func TestInsertVectors(t *testing.T) {
	ctx := context.Background()

	t.Run("DimensionFixedByFirstInsert", func(t *testing.T) {
		db := newTestDB(t)

		_, err := db.InsertVectors(ctx, []*record.Record{
			record.New([]float32{1, 2, 3}),
		})
		require.NoError(t, err)

		_, err = db.InsertVectors(ctx, []*record.Record{
			record.New([]float32{1, 2}),
		})

		var mismatch *ErrDimensionMismatch
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, 3, mismatch.Expected)
		assert.Equal(t, 2, mismatch.Actual)
	})

	t.Run("BatchStopsAtMismatch", func(t *testing.T) {
		db := newTestDB(t)

		good1 := record.New([]float32{1, 0, 0})
		good2 := record.New([]float32{0, 1, 0})
		bad := record.New([]float32{1, 0})
		never := record.New([]float32{0, 0, 1})

		ids, err := db.InsertVectors(ctx, []*record.Record{good1, good2, bad, never})

		var mismatch *ErrDimensionMismatch
		require.ErrorAs(t, err, &mismatch)
		require.Equal(t, []string{good1.ID, good2.ID}, ids)

		// Records before the failure stay committed.
		_, ok, err := db.GetVector(ctx, good1.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		_, ok, err = db.GetVector(ctx, bad.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = db.GetVector(ctx, never.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		stats, err := db.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalVectors)
	})

	t.Run("ReturnsGeneratedIDs", func(t *testing.T) {
		db := newTestDB(t)

		recs := []*record.Record{
			record.NewWithID("my-id", []float32{1, 0}),
			record.New([]float32{0, 1}),
		}

		ids, err := db.InsertVectors(ctx, recs)
		require.NoError(t, err)
		require.Len(t, ids, 2)
		assert.Equal(t, "my-id", ids[0])
		assert.NotEmpty(t, ids[1])
	})
}

func TestDeleteVector(t *testing.T) {
	ctx := context.Background()

	db := newTestDB(t)

	rec := record.New([]float32{1, 0, 0})
	_, err := db.InsertVectors(ctx, []*record.Record{
		rec,
		record.New([]float32{0, 1, 0}),
	})
	require.NoError(t, err)

	t.Run("Existing", func(t *testing.T) {
		deleted, err := db.DeleteVector(ctx, rec.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, ok, err := db.GetVector(ctx, rec.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		results, err := db.Search(ctx, []float32{1, 0, 0}, 10, -1.0)
		require.NoError(t, err)

		for _, result := range results {
			assert.NotEqual(t, rec.ID, result.ID)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		deleted, err := db.DeleteVector(ctx, rec.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestStats(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty", func(t *testing.T) {
		db := newTestDB(t)

		stats, err := db.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalVectors)
		assert.Equal(t, 0, stats.Dimensions)
	})

	t.Run("AfterInsert", func(t *testing.T) {
		db := newTestDB(t)

		_, err := db.InsertVectors(ctx, []*record.Record{
			record.New([]float32{1, 2, 3, 4}),
		})
		require.NoError(t, err)

		stats, err := db.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalVectors)
		assert.Equal(t, 4, stats.Dimensions)
		assert.Greater(t, stats.SizeBytes, int64(0))
	})

	t.Run("DimensionSampledAfterReopen", func(t *testing.T) {
		dir := t.TempDir()

		db, err := New(dir)
		require.NoError(t, err)

		_, err = db.InsertVectors(ctx, []*record.Record{
			record.New([]float32{1, 2, 3, 4, 5}),
		})
		require.NoError(t, err)
		require.NoError(t, db.Close())

		reopened, err := New(dir)
		require.NoError(t, err)

		defer reopened.Close()

		stats, err := reopened.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalVectors)
		assert.Equal(t, 5, stats.Dimensions)
	})
}

func TestCollections(t *testing.T) {
	ctx := context.Background()

	db := newTestDB(t)

	_, err := db.InsertVectors(ctx, []*record.Record{
		record.New([]float32{1, 0}).WithCollection("alpha"),
		record.New([]float32{0, 1}).WithCollection("beta"),
		record.New([]float32{1, 1}).WithCollection("alpha"),
		record.New([]float32{0.5, 0.5}),
	})
	require.NoError(t, err)

	collections, err := db.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, collections)

	records, err := db.VectorsInCollection(ctx, "alpha")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestBackup(t *testing.T) {
	ctx := context.Background()

	t.Run("ToDirectory", func(t *testing.T) {
		db := newTestDB(t)

		records := make([]*record.Record, 0, 10)
		for i := 0; i < 10; i++ {
			records = append(records, record.New([]float32{float32(i), 1}))
		}

		_, err := db.InsertVectors(ctx, records)
		require.NoError(t, err)

		backupDir := t.TempDir()
		require.NoError(t, db.Backup(ctx, backupDir))

		restored, err := New(backupDir)
		require.NoError(t, err)

		defer restored.Close()

		stats, err := restored.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 10, stats.TotalVectors)
	})

	t.Run("ToBlobStore", func(t *testing.T) {
		db := newTestDB(t)

		_, err := db.InsertVectors(ctx, []*record.Record{
			record.New([]float32{1, 2, 3}),
		})
		require.NoError(t, err)

		blobs := blobstore.NewMemoryStore()
		require.NoError(t, db.BackupToBlobStore(ctx, blobs, "snapshot.db"))

		rc, err := blobs.Open(ctx, "snapshot.db")
		require.NoError(t, err)

		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	})
}

func TestReadCache(t *testing.T) {
	ctx := context.Background()

	db := newTestDB(t, WithReadCache(128))

	rec := record.New([]float32{1, 0, 0})
	_, err := db.InsertVectors(ctx, []*record.Record{rec})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, ok, err := db.GetVector(ctx, rec.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, rec.ID, got.ID)
	}
}

func TestInsertLogging(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	db := newTestDB(t, WithLogger(logger))

	good := record.New([]float32{1, 0, 0})
	bad := record.New([]float32{1, 0})

	_, err := db.InsertVectors(ctx, []*record.Record{good, bad})

	var mismatch *ErrDimensionMismatch
	require.ErrorAs(t, err, &mismatch)

	// One per-record line each, plus the batch summary.
	logs := buf.String()
	assert.Contains(t, logs, "insert completed")
	assert.Contains(t, logs, good.ID)
	assert.Contains(t, logs, "insert failed")
	assert.Contains(t, logs, bad.ID)
	assert.Contains(t, logs, "batch insert stopped")
}

func TestClose(t *testing.T) {
	ctx := context.Background()

	db, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	_, _, err = db.GetVector(ctx, "any")
	require.ErrorIs(t, err, ErrClosed)

	_, err = db.Search(ctx, []float32{1}, 1, 0.0)
	require.ErrorIs(t, err, ErrClosed)
}

func ExampleNew() {
	dir, err := os.MkdirTemp("", "vecdb")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	db, err := New(dir)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	ctx := context.Background()

	_, err = db.InsertVectors(ctx, []*record.Record{
		record.New([]float32{1, 0, 0}),
		record.New([]float32{0, 1, 0}),
	})
	if err != nil {
		panic(err)
	}

	results, err := db.Search(ctx, []float32{1, 0.1, 0}, 1, 0.0)
	if err != nil {
		panic(err)
	}

	fmt.Println(len(results))
	// Output: 1
}
