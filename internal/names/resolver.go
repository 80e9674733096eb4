// Package names resolves free-text person names from transcripts to
// canonical registered names: exact match first, then gated substring
// containment, then bounded edit distance.
package names

import (
	"context"
	"fmt"
	"strings"

	"github.com/aman-source/voice-db/internal/store"
)

const (
	// minCandidateLen rejects inputs too short to mean anything.
	minCandidateLen = 2

	// minSubstringLen gates the containment rule so short strings don't
	// spuriously match everything.
	minSubstringLen = 3

	// maxEditDistance is the Levenshtein bound for spelling variations
	// like "sumant" vs "sumanth".
	maxEditDistance = 2
)

// Resolution is the outcome of resolving a candidate name.
type Resolution struct {
	Found         bool   `json:"found"`
	CanonicalName string `json:"canonical_name,omitempty"`
}

// Resolver matches candidate names against the registered speakers in a
// profile store.
type Resolver struct {
	profiles store.ProfileStore
}

// NewResolver creates a Resolver over the given profile store.
func NewResolver(profiles store.ProfileStore) *Resolver {
	return &Resolver{profiles: profiles}
}

// Resolve reports whether candidate refers to a registered person and, if
// so, the canonical stored name. Registered names are scanned in sorted
// order and the first satisfying name wins; no global best-of-all ranking
// is attempted.
func (r *Resolver) Resolve(ctx context.Context, candidate string) (Resolution, error) {
	name := strings.ToLower(strings.TrimSpace(candidate))
	if len(name) < minCandidateLen {
		return Resolution{}, nil
	}

	registered, err := r.profiles.ListNames(ctx)
	if err != nil {
		return Resolution{}, fmt.Errorf("list registered names: %w", err)
	}

	for _, reg := range registered {
		if name == reg {
			return Resolution{Found: true, CanonicalName: reg}, nil
		}
	}

	for _, reg := range registered {
		if len(name) >= minSubstringLen && len(reg) >= minSubstringLen {
			if strings.Contains(reg, name) || strings.Contains(name, reg) {
				return Resolution{Found: true, CanonicalName: reg}, nil
			}
		}
		if WithinDistance(name, reg, maxEditDistance) {
			return Resolution{Found: true, CanonicalName: reg}, nil
		}
	}

	return Resolution{}, nil
}
