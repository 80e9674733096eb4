package transcript

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

var amountRe = regexp.MustCompile(`\b(\d+)\b`)

var actionVerbs = []string{"paid", "pay", "send", "sent", "transfer", "transferred", "gave", "give"}

var commonWords = map[string]bool{
	"i": true, "we": true, "the": true, "a": true, "an": true,
	"please": true, "can": true, "could": true, "want": true,
	"to": true, "from": true, "for": true, "of": true, "in": true,
	"on": true, "at": true, "and": true, "or": true,
}

// Rules is a deterministic Extractor for sentences like
// "send 500 from alice to bob" or "alice paid bob 200". It is the
// fallback when no LLM is configured or the LLM call fails.
type Rules struct{}

func (Rules) Extract(_ context.Context, text string) (Info, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	words := strings.Fields(text)
	if len(words) == 0 {
		return Info{}, nil
	}

	var info Info
	if m := amountRe.FindString(text); m != "" {
		if n, err := strconv.ParseInt(m, 10, 64); err == nil {
			info.Amount = &n
		}
	}

	fromIdx := indexOf(words, "from")
	toIdx := indexOf(words, "to")

	switch {
	case fromIdx >= 0 && toIdx >= 0:
		if fromIdx < toIdx && fromIdx+1 < len(words) {
			info.Sender = words[fromIdx+1]
		}
		if toIdx+1 < len(words) {
			info.Receiver = words[toIdx+1]
		}
	case toIdx >= 0:
		if toIdx+1 < len(words) {
			info.Receiver = words[toIdx+1]
		}
		info.Sender = wordBeforeVerb(words)
	default:
		info.Sender = wordBeforeVerb(words)
	}

	// First word as sender of last resort: "alice paid bob 200".
	if info.Sender == "" {
		first := words[0]
		if !isVerb(first) && !isNumber(first) && !commonWords[first] {
			info.Sender = first
		}
	}

	// Receiver of last resort: last plausible word after the amount.
	if info.Receiver == "" && info.Amount != nil {
		amtIdx := indexOf(words, strconv.FormatInt(*info.Amount, 10))
		if amtIdx >= 0 {
			for i := len(words) - 1; i > amtIdx; i-- {
				w := words[i]
				if !commonWords[w] && !isNumber(w) && !isVerb(w) && len(w) >= 2 {
					info.Receiver = w
					break
				}
			}
		}
	}

	info.Sender = cleanWord(info.Sender)
	info.Receiver = cleanWord(info.Receiver)
	return info, nil
}

func indexOf(words []string, w string) int {
	for i, x := range words {
		if x == w {
			return i
		}
	}
	return -1
}

func isVerb(w string) bool {
	for _, v := range actionVerbs {
		if w == v {
			return true
		}
	}
	return false
}

func isNumber(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// wordBeforeVerb returns the word preceding the first action verb found.
func wordBeforeVerb(words []string) string {
	for _, verb := range actionVerbs {
		if idx := indexOf(words, verb); idx > 0 {
			return words[idx-1]
		}
	}
	return ""
}
