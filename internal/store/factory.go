package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Backend names accepted by Open.
const (
	BackendMemory  = "memory"
	BackendVecLite = "veclite"
	BackendQdrant  = "qdrant"

	ProfileBackendMemory = "memory"
	ProfileBackendBadger = "badger"
)

// Options selects and configures the store backends. Backend selection is
// explicit configuration, never implicit import substitution.
type Options struct {
	Backend        string
	ProfileBackend string
	DataDir        string
	Dim            int
	Qdrant         QdrantConfig
	Logger         zerolog.Logger
}

// Open constructs the configured vector index and profile store.
//
// When the qdrant backend is selected but unreachable, Open falls back to an
// in-process index and logs a warning instead of failing: the service stays
// usable offline, matching the behavior of the managed-backend deployments
// this replaces. Any other construction error is fatal.
func Open(ctx context.Context, opts Options) (VectorIndex, ProfileStore, error) {
	index, err := openIndex(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	profiles, err := openProfiles(opts)
	if err != nil {
		_ = index.Close()
		return nil, nil, err
	}
	return index, profiles, nil
}

func openIndex(ctx context.Context, opts Options) (VectorIndex, error) {
	switch opts.Backend {
	case BackendMemory, "":
		return NewMemoryIndex(opts.Dim), nil
	case BackendVecLite:
		if opts.DataDir == "" {
			return nil, errors.New("veclite backend requires a data directory")
		}
		return NewVecLiteIndex(VecLitePath(opts.DataDir), opts.Dim)
	case BackendQdrant:
		index, err := NewQdrantIndex(ctx, opts.Qdrant, opts.Dim)
		if errors.Is(err, ErrBackendUnavailable) {
			opts.Logger.Warn().
				Err(err).
				Str("host", opts.Qdrant.Host).
				Msg("qdrant unreachable, falling back to in-memory index")
			return NewMemoryIndex(opts.Dim), nil
		}
		if err != nil {
			return nil, err
		}
		return index, nil
	default:
		return nil, fmt.Errorf("unknown vector backend: %s", opts.Backend)
	}
}

func openProfiles(opts Options) (ProfileStore, error) {
	switch opts.ProfileBackend {
	case ProfileBackendMemory, "":
		return NewMemoryProfiles(), nil
	case ProfileBackendBadger:
		if opts.DataDir == "" {
			return nil, errors.New("badger profile backend requires a data directory")
		}
		return NewBadgerProfiles(BadgerOptions{Dir: BadgerPath(opts.DataDir)})
	default:
		return nil, fmt.Errorf("unknown profile backend: %s", opts.ProfileBackend)
	}
}
