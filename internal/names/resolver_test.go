package names

import (
	"context"
	"testing"

	"github.com/aman-source/voice-db/internal/store"
)

func newTestResolver(t *testing.T, registered ...string) *Resolver {
	t.Helper()
	ps := store.NewMemoryProfiles()
	ctx := context.Background()
	for i, name := range registered {
		err := ps.Put(ctx, store.Profile{
			ID:         string(rune('a' + i)),
			PersonName: name,
			Vector:     []float32{1},
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return NewResolver(ps)
}

func TestResolve(t *testing.T) {
	testCases := []struct {
		name       string
		registered []string
		candidate  string
		wantFound  bool
		wantName   string
	}{
		{
			name:       "exact match",
			registered: []string{"alice", "sumanth"},
			candidate:  "sumanth",
			wantFound:  true,
			wantName:   "sumanth",
		},
		{
			name:       "exact match case insensitive trimmed",
			registered: []string{"alice"},
			candidate:  "  ALICE ",
			wantFound:  true,
			wantName:   "alice",
		},
		{
			name:       "edit distance one",
			registered: []string{"sumanth"},
			candidate:  "sumant",
			wantFound:  true,
			wantName:   "sumanth",
		},
		{
			name:       "edit distance two",
			registered: []string{"sumanth"},
			candidate:  "sumnt",
			wantFound:  true,
			wantName:   "sumanth",
		},
		{
			name:       "substring containment",
			registered: []string{"alexander"},
			candidate:  "alex",
			wantFound:  true,
			wantName:   "alexander",
		},
		{
			name:       "short candidate no spurious substring match",
			registered: []string{"sumanth"},
			candidate:  "xy",
			wantFound:  false,
		},
		{
			name:       "too short after trim",
			registered: []string{"alice"},
			candidate:  " a ",
			wantFound:  false,
		},
		{
			name:       "no match beyond bound",
			registered: []string{"alice"},
			candidate:  "zorbulon",
			wantFound:  false,
		},
		{
			name:      "empty registry",
			candidate: "alice",
			wantFound: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestResolver(t, tc.registered...)
			got, err := r.Resolve(context.Background(), tc.candidate)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got.Found != tc.wantFound {
				t.Errorf("Found = %v, want %v", got.Found, tc.wantFound)
			}
			if got.CanonicalName != tc.wantName {
				t.Errorf("CanonicalName = %q, want %q", got.CanonicalName, tc.wantName)
			}
		})
	}
}

func TestResolveExactBeatsFuzzy(t *testing.T) {
	// "anna" is also within edit distance 2 of "ann", but the exact match
	// must win regardless of scan order.
	r := newTestResolver(t, "ann", "anna")
	got, err := r.Resolve(context.Background(), "anna")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Found || got.CanonicalName != "anna" {
		t.Errorf("Resolve = %+v, want exact match anna", got)
	}
}

func TestResolveDeterministicOrder(t *testing.T) {
	// Both registered names are one edit away; the sorted scan must always
	// pick the lexicographically first.
	r := newTestResolver(t, "dana", "dane")
	for range 5 {
		got, err := r.Resolve(context.Background(), "dan")
		if err != nil {
			t.Fatal(err)
		}
		if got.CanonicalName != "dana" {
			t.Fatalf("CanonicalName = %q, want dana on every run", got.CanonicalName)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	testCases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"sumant", "sumanth", 1},
		{"xy", "sumanth", 6},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
	}
	for _, tc := range testCases {
		if got := Levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestWithinDistanceShortCircuit(t *testing.T) {
	if WithinDistance("ab", "abcdefg", 2) {
		t.Error("length difference 5 should short-circuit to false")
	}
	if !WithinDistance("sumant", "sumanth", 2) {
		t.Error("sumant vs sumanth should be within 2")
	}
}
