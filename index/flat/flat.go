// Package flat provides an exact brute-force index.
//
// Every search computes cosine similarity against all stored embeddings,
// which makes the index a correctness baseline and a reasonable choice for
// small datasets. The metric is fixed to cosine regardless of any
// database-level configuration.
package flat

import (
	"slices"
	"sort"

	"github.com/vecdb/vecdb/index"
	"github.com/vecdb/vecdb/metric"
)

// Compile-time check to ensure Flat satisfies the index interface.
var _ index.Index = (*Flat)(nil)

// Flat represents a flat index for exact vector search.
type Flat struct {
	vectors map[string][]float32
}

// New creates a new instance of the flat index.
func New() *Flat {
	return &Flat{
		vectors: make(map[string][]float32),
	}
}

// Add inserts a vector under the given id. The index keeps its own copy of
// the embedding. An existing id is overwritten.
func (f *Flat) Add(id string, embedding []float32) error {
	f.vectors[id] = slices.Clone(embedding)
	return nil
}

// Remove deletes the vector with the given id and reports whether it existed.
func (f *Flat) Remove(id string) (bool, error) {
	if _, ok := f.vectors[id]; !ok {
		return false, nil
	}
	delete(f.vectors, id)
	return true, nil
}

// Search scores every stored embedding against the query with cosine
// similarity and returns the k best matches in descending score order.
func (f *Flat) Search(query []float32, k int) ([]index.SearchResult, error) {
	if k <= 0 {
		return nil, index.ErrInvalidK
	}

	results := make([]index.SearchResult, 0, len(f.vectors))
	for id, vector := range f.vectors {
		score, err := metric.CosineSimilarity(query, vector)
		if err != nil {
			return nil, err
		}
		results = append(results, index.SearchResult{ID: id, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

// Size returns the number of indexed vectors.
func (f *Flat) Size() int {
	return len(f.vectors)
}

// Clear removes all vectors from the index.
func (f *Flat) Clear() {
	f.vectors = make(map[string][]float32)
}
