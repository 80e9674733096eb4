package speaker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aman-source/voice-db/internal/store"
	"github.com/aman-source/voice-db/internal/vecmath"
)

// RefreshCentroid recomputes a person's centroid from the full current
// sample set and overwrites the centroid record in both stores. It is a
// read-then-overwrite, not a running average, so replaying the same samples
// is idempotent. With no samples it is a no-op.
//
// Recomputation is serialized per person name; concurrent enrollments for
// different names never contend.
func (e *Engine) RefreshCentroid(ctx context.Context, personName string) error {
	name := NormalizeName(personName)
	if len(name) < 2 {
		return ErrInvalidName
	}

	unlock := e.locks.lock(name)
	defer unlock()

	samples, err := e.profiles.ListByName(ctx, name)
	if err != nil {
		return fmt.Errorf("load samples: %w", err)
	}
	if len(samples) == 0 {
		return nil
	}

	vectors := make([][]float32, 0, len(samples))
	for _, p := range samples {
		if len(p.Vector) != e.dim {
			e.log.Warn().Str("id", p.ID).Int("len", len(p.Vector)).
				Msg("skipping sample with unexpected vector length")
			continue
		}
		vectors = append(vectors, p.Vector)
	}
	if len(vectors) == 0 {
		return nil
	}

	centroid := vecmath.Normalize(vecmath.Mean(vectors))
	id := CentroidID(name)

	if err := e.index.Insert(ctx, id, centroid); err != nil {
		return fmt.Errorf("upsert centroid vector: %w", err)
	}
	if err := e.profiles.Put(ctx, store.Profile{
		ID:          id,
		PersonName:  name,
		IsCentroid:  true,
		SampleCount: len(vectors),
		CreatedAt:   time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("upsert centroid profile: %w", err)
	}

	e.log.Debug().Str("person", name).Int("samples", len(vectors)).Msg("centroid refreshed")
	return nil
}

// nameLocks hands out one mutex per person name so centroid recomputation
// is single-writer per name. Entries are never reaped; the universe of
// names is small.
type nameLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (n *nameLocks) lock(name string) (unlock func()) {
	n.mu.Lock()
	if n.locks == nil {
		n.locks = make(map[string]*sync.Mutex)
	}
	l, ok := n.locks[name]
	if !ok {
		l = &sync.Mutex{}
		n.locks[name] = l
	}
	n.mu.Unlock()

	l.Lock()
	return l.Unlock
}
