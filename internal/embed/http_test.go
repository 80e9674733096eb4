package embed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPProviderEmbed(t *testing.T) {
	want := []float32{0.1, 0.2, 0.3, 0.4}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			t.Errorf("path = %s, want /embed", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("audio"); err != nil {
			t.Errorf("missing audio part: %v", err)
		}
		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: want})
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{URL: srv.URL, Dimensions: 4})
	got, err := p.Embed(context.Background(), []byte("fake-wav"))
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(got) != 4 || got[0] != 0.1 {
		t.Errorf("embedding = %v, want %v", got, want)
	}
}

func TestHTTPProviderDimensionCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{1, 2}})
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{URL: srv.URL, Dimensions: 4})
	if _, err := p.Embed(context.Background(), []byte("x")); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestHTTPProviderEmptyAudio(t *testing.T) {
	p := NewHTTPProvider(HTTPConfig{URL: "http://localhost:1", Dimensions: 4})
	if _, err := p.Embed(context.Background(), nil); !errors.Is(err, ErrEmptyAudio) {
		t.Errorf("err = %v, want ErrEmptyAudio", err)
	}
}

func TestHTTPProviderUnavailable(t *testing.T) {
	p := NewHTTPProvider(HTTPConfig{URL: "http://127.0.0.1:1", Dimensions: 4})
	_, err := p.Embed(context.Background(), []byte("x"))
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("err = %v, want ErrProviderUnavailable", err)
	}
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Error("error should be a *ProviderError")
	}
}

func TestStaticDeterministic(t *testing.T) {
	s := &Static{Dims: 16}
	a1, err := s.Embed(context.Background(), []byte("clip-a"))
	if err != nil {
		t.Fatal(err)
	}
	a2, _ := s.Embed(context.Background(), []byte("clip-a"))
	b, _ := s.Embed(context.Background(), []byte("clip-b"))

	for i := range a1 {
		if a1[i] != a2[i] {
			t.Fatal("same audio should embed identically")
		}
	}
	same := true
	for i := range a1 {
		if a1[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different audio should embed differently")
	}
}
