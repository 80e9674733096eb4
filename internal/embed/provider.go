// Package embed turns raw audio into fixed-length voiceprint vectors.
// The model itself is an external collaborator behind the Provider
// interface; this package only ships clients for it.
package embed

import (
	"context"
	"errors"
	"fmt"
)

// Common errors for embedding providers.
var (
	ErrProviderUnavailable = errors.New("embedding provider unavailable")
	ErrEmptyAudio          = errors.New("cannot embed empty audio")
	ErrDimensionMismatch   = errors.New("embedding dimension mismatch")
)

// Provider defines the interface for voiceprint embedding backends.
// Returned vectors may or may not be normalized; the engine normalizes
// on entry either way.
type Provider interface {
	// Embed generates an embedding vector for one audio clip.
	Embed(ctx context.Context, audio []byte) ([]float32, error)

	// Dimensions returns the dimensionality of the embedding vectors.
	Dimensions() int

	// Ping checks if the provider is reachable and the model is loaded.
	Ping(ctx context.Context) error
}

// ProviderError wraps errors with provider context.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
