// Package speaker implements the voiceprint engine: enrollment with
// centroid maintenance, identification against the whole index, and
// verification against a claimed identity.
package speaker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aman-source/voice-db/internal/store"
	"github.com/aman-source/voice-db/internal/vecmath"
)

// ErrInvalidName is returned for empty or too-short person names. Invalid
// input is rejected before any backend call.
var ErrInvalidName = errors.New("person name must be at least 2 characters")

const (
	// identifyK leaves room to skip orphaned index entries whose metadata
	// is gone; k=1 would only be safe with a strictly consistent store.
	identifyK = 20

	// verifyK is wider so the claimed person's own vectors are likely to
	// appear among the neighbors even in a crowded index.
	verifyK = 50
)

// centroidNamespace is the fixed UUIDv5 namespace for derived centroid ids.
// Changing it would orphan every existing centroid record.
var centroidNamespace = uuid.MustParse("9a600a9e-62a6-4ec2-9bb2-0f5ba2a0b1d4")

// CentroidID derives the deterministic id under which a person's centroid
// record is stored. It is a UUID so every backend, including Qdrant, accepts
// it as a point id.
func CentroidID(personName string) string {
	return uuid.NewSHA1(centroidNamespace, []byte(personName+"/centroid")).String()
}

// NormalizeName canonicalizes a person name: lower-cased and trimmed.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Match is the outcome of an identification. A zero PersonName means no
// match, which is a normal result, not an error.
type Match struct {
	PersonName string  `json:"person_name"`
	Confidence float32 `json:"confidence"`
}

// Verification is the outcome of verifying a claimed identity. Registered
// distinguishes "unknown person" from "known person, low-confidence voice":
// a registered name never comes back as not found, only with a low score.
type Verification struct {
	Confidence float32 `json:"confidence"`
	Registered bool    `json:"is_registered"`
}

// Stats summarizes the engine's stores for status output.
type Stats struct {
	IndexBackend string   `json:"index_backend"`
	ProfileCount int      `json:"profile_count"`
	Speakers     []string `json:"speakers"`
}

// Engine ties a vector index and profile store together under one set of
// semantics: entry normalization, cosine confidence, orphan skipping, and
// per-name centroid maintenance.
type Engine struct {
	index    store.VectorIndex
	profiles store.ProfileStore
	dim      int
	log      zerolog.Logger
	locks    nameLocks
}

// New creates an Engine over the given stores for vectors of dimension dim.
func New(index store.VectorIndex, profiles store.ProfileStore, dim int, log zerolog.Logger) *Engine {
	return &Engine{
		index:    index,
		profiles: profiles,
		dim:      dim,
		log:      log.With().Str("component", "speaker").Logger(),
	}
}

// Dim returns the embedding dimension the engine was built for.
func (e *Engine) Dim() int { return e.dim }

// Enroll stores one voice sample for a person and refreshes their centroid.
// Multiple calls for the same name accumulate samples. The returned id
// identifies the stored sample.
//
// A centroid refresh failure never fails the enrollment: the centroid is a
// best-effort optimization and the next enrollment retries it.
func (e *Engine) Enroll(ctx context.Context, personName string, embedding []float32) (string, error) {
	name := NormalizeName(personName)
	if len(name) < 2 {
		return "", ErrInvalidName
	}
	if len(embedding) != e.dim {
		return "", fmt.Errorf("%w: got %d, want %d", store.ErrDimensionMismatch, len(embedding), e.dim)
	}

	vec := vecmath.Normalize(embedding)
	id := uuid.NewString()

	if err := e.index.Insert(ctx, id, vec); err != nil {
		return "", fmt.Errorf("insert sample vector: %w", err)
	}
	if err := e.profiles.Put(ctx, store.Profile{
		ID:         id,
		PersonName: name,
		Vector:     vec,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		return "", fmt.Errorf("store sample profile: %w", err)
	}

	if err := e.RefreshCentroid(ctx, name); err != nil {
		e.log.Warn().Err(err).Str("person", name).Msg("centroid refresh failed, will retry on next enrollment")
	}

	return id, nil
}

// Identify returns the best-matching person for the query embedding.
// Both raw samples and centroids are candidates; centroids usually win
// because they average out per-sample noise. Index entries without a
// profile record are skipped as orphans.
func (e *Engine) Identify(ctx context.Context, embedding []float32) (Match, error) {
	if len(embedding) != e.dim {
		return Match{}, fmt.Errorf("%w: got %d, want %d", store.ErrDimensionMismatch, len(embedding), e.dim)
	}

	query := vecmath.Normalize(embedding)
	neighbors, err := e.index.Search(ctx, query, identifyK)
	if err != nil {
		return Match{}, fmt.Errorf("neighbor search: %w", err)
	}

	for _, n := range neighbors {
		p, err := e.profiles.Get(ctx, n.ID)
		if errors.Is(err, store.ErrNotFound) {
			e.log.Warn().Str("id", n.ID).Msg("skipping orphaned vector without profile")
			continue
		}
		if err != nil {
			return Match{}, fmt.Errorf("resolve neighbor %s: %w", n.ID, err)
		}
		return Match{PersonName: p.PersonName, Confidence: vecmath.Clamp(n.Similarity)}, nil
	}

	return Match{}, nil
}

// Verify returns the best similarity between the query embedding and the
// claimed person's own records. An unregistered name yields (0, false);
// a registered name whose vectors miss the neighbor window yields
// (0, true): a low-confidence result, never "not found".
func (e *Engine) Verify(ctx context.Context, embedding []float32, claimedName string) (Verification, error) {
	name := NormalizeName(claimedName)
	if len(name) < 2 {
		return Verification{}, ErrInvalidName
	}
	if len(embedding) != e.dim {
		return Verification{}, fmt.Errorf("%w: got %d, want %d", store.ErrDimensionMismatch, len(embedding), e.dim)
	}

	samples, err := e.profiles.ListByName(ctx, name)
	if err != nil {
		return Verification{}, fmt.Errorf("list samples for %q: %w", name, err)
	}
	if len(samples) == 0 {
		return Verification{}, nil
	}

	ownIDs := make(map[string]bool, len(samples)+1)
	for _, p := range samples {
		ownIDs[p.ID] = true
	}
	ownIDs[CentroidID(name)] = true

	query := vecmath.Normalize(embedding)
	neighbors, err := e.index.Search(ctx, query, verifyK)
	if err != nil {
		return Verification{}, fmt.Errorf("neighbor search: %w", err)
	}

	var best float32
	for _, n := range neighbors {
		if ownIDs[n.ID] && n.Similarity > best {
			best = n.Similarity
		}
	}
	if best == 0 {
		e.log.Debug().Str("person", name).Int("neighbors", len(neighbors)).
			Msg("no neighbor belonged to the claimed person")
	}

	return Verification{Confidence: vecmath.Clamp(best), Registered: true}, nil
}

// Stats reports the current store contents.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	count, err := e.profiles.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count profiles: %w", err)
	}
	names, err := e.profiles.ListNames(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list names: %w", err)
	}
	return Stats{
		IndexBackend: e.index.Type(),
		ProfileCount: count,
		Speakers:     names,
	}, nil
}
