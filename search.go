package vecdb

import (
	"context"
	"time"
)

// SearchResult is a single similarity match.
type SearchResult struct {
	// ID of the matching record.
	ID string `json:"id"`
	// Score as reported by the index; higher means closer.
	Score float32 `json:"score"`
	// Metadata carried through from the matching record.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Search returns up to k records closest to query whose score is at least
// threshold.
//
// The index read lock is held for the whole query, including the store
// fetches. The index is over-fetched by a factor of two to compensate for
// candidates below the threshold or no longer present in the store. Results
// keep the index's score order; kept candidates are never re-sorted.
func (db *DB) Search(ctx context.Context, query []float32, k int, threshold float32) ([]SearchResult, error) {
	if db.closed.Load() {
		return nil, ErrClosed
	}

	start := time.Now()
	results, err := db.search(ctx, query, k, threshold, "")
	db.logger.LogSearch(ctx, k, len(results), err)
	db.metrics.RecordSearch(k, time.Since(start), err)

	return results, err
}

// SearchInCollection is Search restricted to records tagged with the given
// collection. The index is over-fetched by a factor of five because the
// collection filter discards more candidates.
func (db *DB) SearchInCollection(ctx context.Context, collection string, query []float32, k int, threshold float32) ([]SearchResult, error) {
	if db.closed.Load() {
		return nil, ErrClosed
	}

	if collection == "" {
		return nil, ErrInvalidCollection
	}

	start := time.Now()
	results, err := db.search(ctx, query, k, threshold, collection)
	db.logger.LogSearch(ctx, k, len(results), err)
	db.metrics.RecordSearch(k, time.Since(start), err)

	return results, err
}

func (db *DB) search(ctx context.Context, query []float32, k int, threshold float32, collection string) ([]SearchResult, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}

	fetch := k * 2
	if collection != "" {
		fetch = k * 5
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	candidates, err := db.idx.Search(query, fetch)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, k)

	for _, candidate := range candidates {
		if candidate.Score < threshold {
			continue
		}

		rec, ok, err := db.store.GetVector(ctx, candidate.ID)
		if err != nil {
			return nil, err
		}

		// The index may briefly know ids the store has already dropped.
		if !ok {
			continue
		}

		if collection != "" && rec.Collection != collection {
			continue
		}

		results = append(results, SearchResult{
			ID:       candidate.ID,
			Score:    candidate.Score,
			Metadata: rec.Metadata,
		})

		if len(results) == k {
			break
		}
	}

	return results, nil
}
