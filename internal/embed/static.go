package embed

import (
	"context"
	"hash/fnv"
	"math"
)

// Static is a deterministic offline Provider: the vector is derived from a
// hash of the audio bytes, so the same clip always embeds identically and
// similar clips do not. Used by tests and by dry-run tooling when no
// encoder service is available.
type Static struct {
	Dims int
}

func (s *Static) Embed(_ context.Context, audio []byte) ([]float32, error) {
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}
	dims := s.Dims
	if dims == 0 {
		dims = defaultEncoderDims
	}

	out := make([]float32, dims)
	h := fnv.New64a()
	_, _ = h.Write(audio)
	seed := h.Sum64()
	for i := range out {
		// xorshift64 keeps the sequence deterministic per seed.
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		out[i] = float32(seed%2000)/1000 - 1
	}

	var norm float64
	for _, x := range out {
		norm += float64(x) * float64(x)
	}
	if norm > 0 {
		n := float32(math.Sqrt(norm))
		for i := range out {
			out[i] /= n
		}
	}
	return out, nil
}

func (s *Static) Dimensions() int {
	if s.Dims == 0 {
		return defaultEncoderDims
	}
	return s.Dims
}

func (s *Static) Ping(context.Context) error { return nil }
