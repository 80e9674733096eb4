package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	defaultSarvamURL     = "https://api.sarvam.ai/speech-to-text"
	defaultSarvamModel   = "saaras:v3"
	defaultLanguageCode  = "en-IN"
	defaultSarvamTimeout = 15 * time.Second
)

// SarvamConfig configures the Sarvam speech-to-text client.
type SarvamConfig struct {
	URL          string
	APIKey       string
	Model        string
	LanguageCode string
	Timeout      time.Duration
}

// SarvamClient is a Transcriber backed by the Sarvam AI speech-to-text API,
// which handles Indian-language names natively.
type SarvamClient struct {
	config SarvamConfig
	client *http.Client
}

type sarvamResponse struct {
	Transcript string `json:"transcript"`
}

// NewSarvamClient creates a Sarvam transcription client.
func NewSarvamClient(cfg SarvamConfig) *SarvamClient {
	if cfg.URL == "" {
		cfg.URL = defaultSarvamURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultSarvamModel
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = defaultLanguageCode
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultSarvamTimeout
	}
	return &SarvamClient{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Transcribe sends the WAV clip to Sarvam and returns the lower-cased
// transcript.
func (c *SarvamClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	for field, value := range map[string]string{
		"model":         c.config.Model,
		"language_code": c.config.LanguageCode,
		"mode":          "transcribe",
	} {
		if err := mw.WriteField(field, value); err != nil {
			return "", fmt.Errorf("build request: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("api-subscription-key", c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("sarvam HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out sarvamResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return strings.ToLower(strings.TrimSpace(out.Transcript)), nil
}
