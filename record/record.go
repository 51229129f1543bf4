// Package record defines the persisted vector record model.
package record

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/viterin/vek/vek32"

	"github.com/vecdb/vecdb/metric"
)

// Record is the persisted unit of the database: an embedding with identity,
// optional metadata, an optional collection tag and a creation timestamp.
//
// Records serialize as self-describing JSON blobs keyed by ID.
type Record struct {
	// ID is an opaque unique identifier. A random UUID is generated when the
	// caller does not supply one.
	ID string `json:"id"`

	// Embedding is the ordered sequence of 32-bit floats representing the
	// item in similarity space.
	Embedding []float32 `json:"embedding"`

	// Metadata holds optional string key/value pairs carried through to
	// search results. Insertion order is irrelevant.
	Metadata map[string]string `json:"metadata,omitempty"`

	// Collection is an optional partition tag used to scope searches.
	Collection string `json:"collection,omitempty"`

	// CreatedAt is the construction time in seconds since the Unix epoch.
	CreatedAt int64 `json:"created_at"`
}

// New creates a record with a freshly generated UUID.
func New(embedding []float32) *Record {
	return NewWithID(uuid.NewString(), embedding)
}

// NewWithID creates a record with a caller-supplied id.
func NewWithID(id string, embedding []float32) *Record {
	return &Record{
		ID:        id,
		Embedding: embedding,
		CreatedAt: time.Now().Unix(),
	}
}

// WithMetadata returns a copy of the record with the metadata attached.
func (r *Record) WithMetadata(metadata map[string]string) *Record {
	c := r.clone()
	c.Metadata = maps.Clone(metadata)
	return c
}

// WithCollection returns a copy of the record tagged with a collection.
func (r *Record) WithCollection(collection string) *Record {
	c := r.clone()
	c.Collection = collection
	return c
}

// Dimensions returns the length of the embedding.
func (r *Record) Dimensions() int {
	return len(r.Embedding)
}

// Normalize rescales the embedding in place to unit L2 norm. A zero-norm
// embedding is left unchanged. Normalization is never applied automatically
// by the store or an index; callers normalize explicitly if their chosen
// metric assumes unit vectors.
func (r *Record) Normalize() {
	norm := metric.Magnitude(r.Embedding)
	if norm > 0 {
		vek32.MulNumber_Inplace(r.Embedding, 1/norm)
	}
}

func (r *Record) clone() *Record {
	return &Record{
		ID:         r.ID,
		Embedding:  slices.Clone(r.Embedding),
		Metadata:   maps.Clone(r.Metadata),
		Collection: r.Collection,
		CreatedAt:  r.CreatedAt,
	}
}
