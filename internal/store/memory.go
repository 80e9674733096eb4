package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryIndex is an in-process VectorIndex using exact brute-force search.
// O(n*D) per query, which is fine at the scale of a single organization's
// enrolled speakers. It is the fallback when a remote backend is down.
type MemoryIndex struct {
	mu      sync.RWMutex
	dim     int
	vectors map[string][]float32
}

// NewMemoryIndex creates an empty in-memory index for vectors of the given
// dimension.
func NewMemoryIndex(dim int) *MemoryIndex {
	return &MemoryIndex{
		dim:     dim,
		vectors: make(map[string][]float32),
	}
}

func (m *MemoryIndex) Insert(_ context.Context, id string, vector []float32) error {
	if err := checkDimension(m.dim, vector); err != nil {
		return err
	}
	cp := make([]float32, len(vector))
	copy(cp, vector)
	m.mu.Lock()
	m.vectors[id] = cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryIndex) Search(_ context.Context, query []float32, k int) ([]Neighbor, error) {
	if err := checkDimension(m.dim, query); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.vectors) == 0 || k <= 0 {
		return nil, nil
	}

	results := make([]Neighbor, 0, len(m.vectors))
	for id, vec := range m.vectors {
		var sum float64
		for i := range vec {
			sum += float64(query[i]) * float64(vec[i])
		}
		results = append(results, Neighbor{ID: id, Similarity: float32(sum)})
	}

	// Equal similarities fall back to id order so results are stable.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Len returns the number of stored vectors.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

func (m *MemoryIndex) Flush() error { return nil }
func (m *MemoryIndex) Close() error { return nil }

func (m *MemoryIndex) Type() string { return "memory" }

// MemoryProfiles is an in-process ProfileStore. Suitable for tests and for
// the offline fallback path alongside MemoryIndex.
type MemoryProfiles struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewMemoryProfiles creates an empty in-memory profile store.
func NewMemoryProfiles() *MemoryProfiles {
	return &MemoryProfiles{profiles: make(map[string]Profile)}
}

func (m *MemoryProfiles) Put(_ context.Context, p Profile) error {
	m.mu.Lock()
	m.profiles[p.ID] = p
	m.mu.Unlock()
	return nil
}

func (m *MemoryProfiles) Get(_ context.Context, id string) (Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryProfiles) ListByName(_ context.Context, personName string) ([]Profile, error) {
	name := strings.ToLower(strings.TrimSpace(personName))
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Profile
	for _, p := range m.profiles {
		if !p.IsCentroid && p.PersonName == name {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryProfiles) ListNames(_ context.Context) ([]string, error) {
	m.mu.RLock()
	seen := make(map[string]bool)
	for _, p := range m.profiles {
		if !p.IsCentroid {
			seen[p.PersonName] = true
		}
	}
	m.mu.RUnlock()

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryProfiles) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.profiles), nil
}

func (m *MemoryProfiles) Close() error { return nil }
