package vecdb

import (
	"errors"

	"github.com/vecdb/vecdb/index"
	"github.com/vecdb/vecdb/metric"
)

var (
	// ErrNotFound is returned when an item is not found.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned when operations are attempted on a closed database.
	ErrClosed = errors.New("database is closed")

	// ErrInvalidK is returned when a search requests a non-positive number of neighbors.
	ErrInvalidK = index.ErrInvalidK

	// ErrInvalidCollection is returned when a collection-scoped search is
	// given an empty collection tag. The empty string marks untagged records.
	ErrInvalidCollection = errors.New("collection must not be empty")
)

// ErrDimensionMismatch is returned when an embedding's length differs from
// the dimension fixed by the first accepted insert.
type ErrDimensionMismatch = metric.ErrDimensionMismatch
