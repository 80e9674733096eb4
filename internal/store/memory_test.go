package store

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aman-source/voice-db/internal/vecmath"
)

func TestMemoryIndexSearchOrdering(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(3)

	vectors := map[string][]float32{
		"a": vecmath.Normalize([]float32{1, 0, 0}),
		"b": vecmath.Normalize([]float32{0.9, 0.1, 0}),
		"c": vecmath.Normalize([]float32{0, 1, 0}),
		"d": vecmath.Normalize([]float32{0, 0, 1}),
	}
	for id, v := range vectors {
		if err := idx.Insert(ctx, id, v); err != nil {
			t.Fatalf("Insert(%s): %v", id, err)
		}
	}

	query := vecmath.Normalize([]float32{1, 0, 0})
	neighbors, err := idx.Search(ctx, query, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(neighbors) != 2 {
		t.Fatalf("got %d neighbors, want 2", len(neighbors))
	}
	if neighbors[0].ID != "a" {
		t.Errorf("top neighbor = %s, want a", neighbors[0].ID)
	}
	if neighbors[1].ID != "b" {
		t.Errorf("second neighbor = %s, want b", neighbors[1].ID)
	}
	if math.Abs(float64(neighbors[0].Similarity-1)) > 1e-5 {
		t.Errorf("self-similarity = %v, want ~1", neighbors[0].Similarity)
	}
	if neighbors[0].Similarity < neighbors[1].Similarity {
		t.Error("neighbors not in descending similarity order")
	}
}

func TestMemoryIndexEmpty(t *testing.T) {
	idx := NewMemoryIndex(3)
	neighbors, err := idx.Search(context.Background(), []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Search on empty index: %v", err)
	}
	if len(neighbors) != 0 {
		t.Errorf("got %d neighbors from empty index, want 0", len(neighbors))
	}
}

func TestMemoryIndexDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(3)

	if err := idx.Insert(ctx, "a", []float32{1, 0}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Insert wrong dim = %v, want ErrDimensionMismatch", err)
	}
	if _, err := idx.Search(ctx, []float32{1, 0}, 1); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Search wrong dim = %v, want ErrDimensionMismatch", err)
	}
}

func TestMemoryIndexOverwrite(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(2)

	if err := idx.Insert(ctx, "a", []float32{1, 0}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Insert(ctx, "a", []float32{0, 1}); err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 1 {
		t.Fatalf("Len = %d after overwrite, want 1", idx.Len())
	}

	neighbors, err := idx.Search(ctx, []float32{0, 1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(float64(neighbors[0].Similarity-1)) > 1e-5 {
		t.Errorf("overwritten vector similarity = %v, want ~1", neighbors[0].Similarity)
	}
}

func TestMemoryProfiles(t *testing.T) {
	ctx := context.Background()
	ps := NewMemoryProfiles()

	now := time.Now().UTC()
	records := []Profile{
		{ID: "s1", PersonName: "alice", Vector: []float32{1, 0}, CreatedAt: now},
		{ID: "s2", PersonName: "alice", Vector: []float32{0, 1}, CreatedAt: now},
		{ID: "c1", PersonName: "alice", IsCentroid: true, SampleCount: 2, CreatedAt: now},
		{ID: "s3", PersonName: "bob", Vector: []float32{1, 1}, CreatedAt: now},
	}
	for _, p := range records {
		if err := ps.Put(ctx, p); err != nil {
			t.Fatalf("Put(%s): %v", p.ID, err)
		}
	}

	got, err := ps.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.PersonName != "alice" {
		t.Errorf("PersonName = %s, want alice", got.PersonName)
	}

	if _, err := ps.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}

	samples, err := ps.ListByName(ctx, "  Alice ")
	if err != nil {
		t.Fatalf("ListByName: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("ListByName returned %d profiles, want 2 (centroid excluded)", len(samples))
	}
	for _, p := range samples {
		if p.IsCentroid {
			t.Error("ListByName returned a centroid profile")
		}
	}

	names, err := ps.ListNames(ctx)
	if err != nil {
		t.Fatalf("ListNames: %v", err)
	}
	if len(names) != 2 || names[0] != "alice" || names[1] != "bob" {
		t.Errorf("ListNames = %v, want [alice bob]", names)
	}

	n, err := ps.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("Count = %d, want 4", n)
	}
}
