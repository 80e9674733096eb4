package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

const extractPrompt = `Extract transaction information from this text: "%s"

Return ONLY a JSON object with these exact keys:
- "sender": name of the person sending money (lowercase, or null if not mentioned)
- "receiver": name of the person receiving money (lowercase, or null if not mentioned)
- "amount": the numeric amount (integer, or null if not mentioned)

Example: {"sender": "alice", "receiver": "bob", "amount": 500}`

// Gemini extracts transaction entities with an LLM call. Any failure in
// the call or the response parse falls back to the rule-based extractor,
// so Extract only errors when even the fallback cannot run.
type Gemini struct {
	client   *genai.Client
	model    string
	fallback Rules
	log      zerolog.Logger
}

// NewGemini builds the Gemini extractor. Model defaults to gemini-2.5-flash.
func NewGemini(ctx context.Context, apiKey, model string, log zerolog.Logger) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{client: client, model: model, log: log}, nil
}

func (g *Gemini) Extract(ctx context.Context, text string) (Info, error) {
	info, err := g.extractLLM(ctx, text)
	if err != nil {
		g.log.Warn().Err(err).Msg("llm extraction failed, using rule-based fallback")
		return g.fallback.Extract(ctx, text)
	}
	return info, nil
}

func (g *Gemini) extractLLM(ctx context.Context, text string) (Info, error) {
	prompt := fmt.Sprintf(extractPrompt, text)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		{Parts: []*genai.Part{{Text: prompt}}, Role: "user"},
	}, nil)
	if err != nil {
		return Info{}, fmt.Errorf("genai generate: %w", err)
	}

	var sb strings.Builder
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	return parseLLMResponse(sb.String())
}

// parseLLMResponse tolerates markdown code fences around the JSON object.
func parseLLMResponse(raw string) (Info, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var out struct {
		Sender   *string  `json:"sender"`
		Receiver *string  `json:"receiver"`
		Amount   *float64 `json:"amount"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Info{}, fmt.Errorf("parse llm response: %w", err)
	}

	var info Info
	if out.Sender != nil {
		info.Sender = cleanWord(*out.Sender)
	}
	if out.Receiver != nil {
		info.Receiver = cleanWord(*out.Receiver)
	}
	if out.Amount != nil {
		n := int64(*out.Amount)
		info.Amount = &n
	}
	return info, nil
}
