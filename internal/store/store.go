// Package store defines the vector index and profile store contracts the
// speaker engine is built on, plus the interchangeable backends: an exact
// in-process index, an embedded veclite index, a remote Qdrant index, and
// memory/badger profile stores.
//
// Vectors handed to a VectorIndex must already be L2-normalized by the
// caller; the index never re-normalizes. Similarities are cosine and live
// in [-1, 1].
package store

import (
	"context"
	"errors"
	"time"
)

// Common errors for store backends.
var (
	// ErrBackendUnavailable means the backing service could not be reached.
	ErrBackendUnavailable = errors.New("store backend unavailable")

	// ErrNotFound is returned by Get when no record exists for the id.
	// A search over an empty index is NOT an error: it returns no neighbors.
	ErrNotFound = errors.New("record not found")

	// ErrDimensionMismatch means a vector does not match the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Neighbor is a single result from a similarity search, ordered by
// descending similarity.
type Neighbor struct {
	ID         string
	Similarity float32
}

// VectorIndex stores (id, vector) pairs and answers k-nearest-neighbor
// queries by cosine similarity. Insert with an existing id overwrites the
// stored vector, which is how centroid records are refreshed in place.
//
// Implementations must be safe for concurrent use.
type VectorIndex interface {
	// Insert adds or replaces a normalized vector under the given id.
	Insert(ctx context.Context, id string, vector []float32) error

	// Search returns up to k neighbors ordered by descending similarity.
	// An empty index yields an empty result, not an error.
	Search(ctx context.Context, query []float32, k int) ([]Neighbor, error)

	// Flush makes pending writes durable and visible to searches.
	Flush() error

	// Close releases resources held by the index.
	Close() error

	// Type returns the backend name for logs and status output.
	Type() string
}

// Profile is the metadata record keyed by the same ids as the vector index.
// Non-centroid profiles carry the normalized sample vector so the index can
// be rebuilt from metadata alone; centroid profiles are derived and carry
// the sample count instead.
type Profile struct {
	ID          string    `msgpack:"id" json:"id"`
	PersonName  string    `msgpack:"person_name" json:"person_name"`
	Vector      []float32 `msgpack:"vector,omitempty" json:"vector,omitempty"`
	IsCentroid  bool      `msgpack:"is_centroid" json:"is_centroid"`
	SampleCount int       `msgpack:"sample_count,omitempty" json:"sample_count,omitempty"`
	CreatedAt   time.Time `msgpack:"created_at" json:"created_at"`
}

// ProfileStore stores speaker metadata keyed by voiceprint id.
//
// Implementations must be safe for concurrent use.
type ProfileStore interface {
	// Put adds or replaces a profile.
	Put(ctx context.Context, p Profile) error

	// Get returns the profile for an id, or ErrNotFound.
	Get(ctx context.Context, id string) (Profile, error)

	// ListByName returns all non-centroid profiles for a person name.
	ListByName(ctx context.Context, personName string) ([]Profile, error)

	// ListNames returns the distinct person names that have at least one
	// non-centroid profile, sorted ascending. The sort order is what makes
	// fuzzy name resolution deterministic.
	ListNames(ctx context.Context) ([]string, error)

	// Count returns the total number of profiles, centroids included.
	Count(ctx context.Context) (int, error)

	// Close releases resources held by the store.
	Close() error
}

func checkDimension(dim int, vector []float32) error {
	if len(vector) != dim {
		return ErrDimensionMismatch
	}
	return nil
}
