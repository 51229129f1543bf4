// Package index provides interfaces and types for vector search indexes.
package index

import "errors"

// ErrInvalidK is returned when k is not positive.
var ErrInvalidK = errors.New("k must be positive")

// SearchResult represents a single index match.
type SearchResult struct {
	// ID is the identifier of the matching vector.
	ID string

	// Score is the similarity between the query and the match.
	// Higher is closer for every index variant.
	Score float32
}

// Index is the capability interface implemented by all index variants.
//
// Implementations are not safe for concurrent use on their own; the database
// guards the index with a single reader-writer lock.
type Index interface {
	// Add inserts a vector under the given id. Re-adding an existing id is
	// implementation-defined: no variant deduplicates, and the graph index
	// may be left with stale neighbor bookkeeping for the old entry.
	Add(id string, embedding []float32) error

	// Remove deletes the vector with the given id.
	// It reports whether the id existed.
	Remove(id string) (bool, error)

	// Search returns at most k results ordered by descending score.
	// Ties are broken arbitrarily. An empty index yields an empty result.
	Search(query []float32, k int) ([]SearchResult, error)

	// Size returns the number of indexed vectors.
	Size() int

	// Clear removes all vectors from the index.
	Clear()
}

// Kind identifies an index variant. The set is closed and an index kind is
// selected once at database construction time.
type Kind int

const (
	// KindGraph is the approximate single-layer proximity-graph index.
	KindGraph Kind = iota

	// KindFlat is the exact brute-force index.
	KindFlat
)

// String returns a string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindGraph:
		return "Graph"
	case KindFlat:
		return "Flat"
	default:
		return "Unknown"
	}
}
