// Package stt adapts external speech-to-text services. Transcription is a
// collaborator, not part of the voiceprint core; the engine only consumes
// the resulting text.
package stt

import (
	"context"
	"errors"
)

// ErrUnavailable means the transcription service could not be reached.
var ErrUnavailable = errors.New("transcription service unavailable")

// Transcriber converts an audio clip to lower-cased text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
