package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	defaultEncoderURL  = "http://localhost:8561"
	defaultEncoderDims = 192
	defaultTimeout     = 30 * time.Second
)

// HTTPConfig holds configuration for the encoder sidecar provider.
type HTTPConfig struct {
	// URL is the base URL of the speaker-encoder service.
	URL string
	// Dimensions is the expected embedding dimension (192 for ECAPA).
	Dimensions int
	Timeout    time.Duration
}

// HTTPProvider implements Provider against a speaker-encoder sidecar
// service exposing POST /embed (multipart audio in, JSON embedding out)
// and GET /health.
type HTTPProvider struct {
	config HTTPConfig
	client *http.Client
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

type encoderErrorResponse struct {
	Error string `json:"error"`
}

// NewHTTPProvider creates a provider talking to the encoder sidecar.
func NewHTTPProvider(cfg HTTPConfig) *HTTPProvider {
	if cfg.URL == "" {
		cfg.URL = defaultEncoderURL
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = defaultEncoderDims
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &HTTPProvider{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *HTTPProvider) Embed(ctx context.Context, audio []byte) ([]float32, error) {
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", "audio.wav")
	if err != nil {
		return nil, &ProviderError{Provider: "encoder", Op: "build request", Err: err}
	}
	if _, err := part.Write(audio); err != nil {
		return nil, &ProviderError{Provider: "encoder", Op: "build request", Err: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &ProviderError{Provider: "encoder", Op: "build request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.URL+"/embed", &body)
	if err != nil {
		return nil, &ProviderError{Provider: "encoder", Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: "encoder", Op: "embed", Err: fmt.Errorf("%w: %v", ErrProviderUnavailable, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var encErr encoderErrorResponse
		if json.Unmarshal(raw, &encErr) == nil && encErr.Error != "" {
			return nil, &ProviderError{Provider: "encoder", Op: "embed", Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, encErr.Error)}
		}
		return nil, &ProviderError{Provider: "encoder", Op: "embed", Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &ProviderError{Provider: "encoder", Op: "decode response", Err: err}
	}
	if len(out.Embedding) != p.config.Dimensions {
		return nil, &ProviderError{
			Provider: "encoder",
			Op:       "embed",
			Err:      fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(out.Embedding), p.config.Dimensions),
		}
	}
	return out.Embedding, nil
}

func (p *HTTPProvider) Dimensions() int {
	return p.config.Dimensions
}

func (p *HTTPProvider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.URL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health returned HTTP %d", ErrProviderUnavailable, resp.StatusCode)
	}
	return nil
}
