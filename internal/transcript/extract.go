// Package transcript extracts transaction entities (sender, receiver,
// amount) from free-text transcripts. The primary extractor calls Gemini;
// a rule-based extractor covers offline use and LLM failures. Extracted
// names are resolved against the registry elsewhere; this package never
// touches the stores.
package transcript

import (
	"context"
	"strings"
)

// Info holds the entities extracted from one transaction sentence.
// Empty strings and a nil Amount mean the value was not mentioned.
type Info struct {
	Sender   string `json:"sender,omitempty"`
	Receiver string `json:"receiver,omitempty"`
	Amount   *int64 `json:"amount"`
}

// Extractor turns a transaction sentence into structured Info.
type Extractor interface {
	Extract(ctx context.Context, text string) (Info, error)
}

// cleanWord strips everything but letters from a candidate name.
func cleanWord(w string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(w) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
