package transcript

import (
	"context"
	"testing"
)

func amt(n int64) *int64 { return &n }

func TestRulesExtract(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		sender   string
		receiver string
		amount   *int64
	}{
		{"from-to", "send 500 from alice to bob", "alice", "bob", amt(500)},
		{"sender from verb", "alice paid bob 200", "alice", "", amt(200)},
		{"receiver after amount", "alice paid 200 bob", "alice", "bob", amt(200)},
		{"to only", "transfer 300 to charlie", "", "charlie", amt(300)},
		{"sender before verb", "sumanth sent 1000 to ravi", "sumanth", "ravi", amt(1000)},
		{"no amount", "alice paid bob", "alice", "", nil},
		{"polite prefix", "please send 50 from dana to eve", "dana", "eve", amt(50)},
		{"empty", "", "", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Rules{}.Extract(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("Extract(%q): %v", tt.text, err)
			}
			if got.Sender != tt.sender {
				t.Errorf("sender = %q, want %q", got.Sender, tt.sender)
			}
			if got.Receiver != tt.receiver {
				t.Errorf("receiver = %q, want %q", got.Receiver, tt.receiver)
			}
			switch {
			case tt.amount == nil && got.Amount != nil:
				t.Errorf("amount = %d, want nil", *got.Amount)
			case tt.amount != nil && got.Amount == nil:
				t.Errorf("amount = nil, want %d", *tt.amount)
			case tt.amount != nil && *got.Amount != *tt.amount:
				t.Errorf("amount = %d, want %d", *got.Amount, *tt.amount)
			}
		})
	}
}

func TestParseLLMResponse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"bare json", `{"sender": "alice", "receiver": "bob", "amount": 500}`},
		{"fenced", "```json\n{\"sender\": \"alice\", \"receiver\": \"bob\", \"amount\": 500}\n```"},
		{"plain fence", "```\n{\"sender\": \"alice\", \"receiver\": \"bob\", \"amount\": 500}\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := parseLLMResponse(tt.raw)
			if err != nil {
				t.Fatalf("parseLLMResponse: %v", err)
			}
			if info.Sender != "alice" || info.Receiver != "bob" {
				t.Errorf("got %q -> %q, want alice -> bob", info.Sender, info.Receiver)
			}
			if info.Amount == nil || *info.Amount != 500 {
				t.Errorf("amount = %v, want 500", info.Amount)
			}
		})
	}
}

func TestParseLLMResponseNulls(t *testing.T) {
	info, err := parseLLMResponse(`{"sender": null, "receiver": "bob", "amount": null}`)
	if err != nil {
		t.Fatalf("parseLLMResponse: %v", err)
	}
	if info.Sender != "" || info.Receiver != "bob" || info.Amount != nil {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestParseLLMResponseGarbage(t *testing.T) {
	if _, err := parseLLMResponse("sorry, I cannot help with that"); err == nil {
		t.Error("expected error for non-JSON response")
	}
}
