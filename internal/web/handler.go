package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aman-source/voice-db/internal/embed"
	"github.com/aman-source/voice-db/internal/names"
	"github.com/aman-source/voice-db/internal/speaker"
	"github.com/aman-source/voice-db/internal/stt"
	"github.com/aman-source/voice-db/internal/transcript"
	"github.com/aman-source/voice-db/internal/version"
)

// maxAudioBytes caps a single uploaded clip.
const maxAudioBytes = 16 << 20

// Handler handles HTTP requests for the voice API.
type Handler struct {
	engine      *speaker.Engine
	provider    embed.Provider
	resolver    *names.Resolver
	transcriber stt.Transcriber
	extractor   transcript.Extractor

	matchThreshold       float32
	transactionThreshold float32
	log                  zerolog.Logger
}

// NewHandler creates a new Handler from the server configuration.
func NewHandler(cfg ServerConfig) *Handler {
	return &Handler{
		engine:               cfg.Engine,
		provider:             cfg.Provider,
		resolver:             cfg.Resolver,
		transcriber:          cfg.Transcriber,
		extractor:            cfg.Extractor,
		matchThreshold:       cfg.MatchThreshold,
		transactionThreshold: cfg.TransactionThreshold,
		log:                  cfg.Logger.With().Str("component", "web").Logger(),
	}
}

type registerResponse struct {
	Status      string `json:"status"`
	PersonName  string `json:"person_name"`
	SamplesUsed int    `json:"samples_used"`
	Method      string `json:"method"`
}

// RegisterMulti enrolls a person from three voice samples. Each sample is
// embedded and stored individually so the centroid averages real vectors.
func (h *Handler) RegisterMulti(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		h.jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	personName := r.FormValue("person_name")
	if personName == "" {
		h.jsonError(w, "person_name is required", http.StatusBadRequest)
		return
	}

	var clips [][]byte
	for _, field := range []string{"audio1", "audio2", "audio3"} {
		audio, err := h.readAudioFile(r, field)
		if err != nil {
			h.jsonError(w, "missing audio file "+field, http.StatusBadRequest)
			return
		}
		clips = append(clips, audio)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	for i, audio := range clips {
		vec, err := h.provider.Embed(ctx, audio)
		if err != nil {
			h.embedError(w, err)
			return
		}
		if _, err := h.engine.Enroll(ctx, personName, vec); err != nil {
			if errors.Is(err, speaker.ErrInvalidName) {
				h.jsonError(w, err.Error(), http.StatusBadRequest)
				return
			}
			h.log.Error().Err(err).Int("sample", i+1).Msg("enrollment failed")
			h.jsonError(w, "enrollment failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	h.jsonResponse(w, registerResponse{
		Status:      "registered",
		PersonName:  speaker.NormalizeName(personName),
		SamplesUsed: len(clips),
		Method:      "individual_embeddings_with_centroid",
	})
}

type matchResponse struct {
	Match      string  `json:"match"`
	PersonName string  `json:"person_name,omitempty"`
	Confidence float32 `json:"confidence"`
}

// Match identifies the speaker of one clip. The outcome is one of
// SUCCESS, LOW_CONFIDENCE, or NOT_FOUND.
func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	audio, err := h.readAudioFile(r, "audio")
	if err != nil {
		h.jsonError(w, "audio file is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	vec, err := h.provider.Embed(ctx, audio)
	if err != nil {
		h.embedError(w, err)
		return
	}
	match, err := h.engine.Identify(ctx, vec)
	if err != nil {
		h.jsonError(w, "identification failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	switch {
	case match.PersonName == "":
		h.jsonResponse(w, matchResponse{Match: "NOT_FOUND", Confidence: match.Confidence})
	case match.Confidence < h.matchThreshold:
		h.jsonResponse(w, matchResponse{Match: "LOW_CONFIDENCE", PersonName: match.PersonName, Confidence: match.Confidence})
	default:
		h.jsonResponse(w, matchResponse{Match: "SUCCESS", PersonName: match.PersonName, Confidence: match.Confidence})
	}
}

type partyStatus struct {
	Name     string `json:"name,omitempty"`
	SpokenAs string `json:"spoken_as,omitempty"`
	DBStatus string `json:"db_status"`
}

type verifyTransactionResponse struct {
	VoiceStatus string      `json:"voice_status"`
	Speaker     string      `json:"speaker"`
	Confidence  float32     `json:"confidence"`
	Sender      partyStatus `json:"sender"`
	Receiver    partyStatus `json:"receiver"`
	Amount      *int64      `json:"amount"`
	Transcript  string      `json:"transcript"`
}

// VerifyTransaction runs the full voice-transaction pipeline on one clip:
// identify the speaker, transcribe the speech, extract sender, receiver,
// and amount, and resolve both names against the registry.
func (h *Handler) VerifyTransaction(w http.ResponseWriter, r *http.Request) {
	if h.transcriber == nil || h.extractor == nil {
		h.jsonError(w, "transcription is not configured", http.StatusServiceUnavailable)
		return
	}

	audio, err := h.readAudioFile(r, "audio")
	if err != nil {
		h.jsonError(w, "audio file is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	vec, err := h.provider.Embed(ctx, audio)
	if err != nil {
		h.embedError(w, err)
		return
	}
	match, err := h.engine.Identify(ctx, vec)
	if err != nil {
		h.jsonError(w, "identification failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := verifyTransactionResponse{
		Speaker:    match.PersonName,
		Confidence: match.Confidence,
	}
	if match.PersonName == "" || match.Confidence < h.transactionThreshold {
		resp.VoiceStatus = "NOT_MATCHED"
		resp.Speaker = "unknown"
	} else {
		resp.VoiceStatus = "MATCHED"
	}

	text, err := h.transcriber.Transcribe(ctx, audio)
	if err != nil {
		if errors.Is(err, stt.ErrUnavailable) {
			h.jsonError(w, "transcription service unavailable", http.StatusServiceUnavailable)
			return
		}
		h.jsonError(w, "transcription failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	resp.Transcript = text

	info, err := h.extractor.Extract(ctx, text)
	if err != nil {
		h.jsonError(w, "extraction failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	resp.Amount = info.Amount
	resp.Sender = h.resolveParty(ctx, info.Sender)
	resp.Receiver = h.resolveParty(ctx, info.Receiver)

	h.jsonResponse(w, resp)
}

// resolveParty maps a spoken name to its registry status. A resolved name
// reports the canonical spelling; an unknown one echoes what was spoken.
func (h *Handler) resolveParty(ctx context.Context, spoken string) partyStatus {
	if spoken == "" {
		return partyStatus{DBStatus: "not_found"}
	}
	res, err := h.resolver.Resolve(ctx, spoken)
	if err != nil {
		h.log.Warn().Err(err).Str("name", spoken).Msg("name resolution failed")
		return partyStatus{Name: spoken, SpokenAs: spoken, DBStatus: "not_found"}
	}
	if !res.Found {
		return partyStatus{Name: spoken, SpokenAs: spoken, DBStatus: "not_found"}
	}
	return partyStatus{Name: res.CanonicalName, SpokenAs: spoken, DBStatus: "found"}
}

// APIStatus returns store statistics as JSON.
func (h *Handler) APIStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	stats, err := h.engine.Stats(ctx)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonResponse(w, stats)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, map[string]interface{}{
		"status":  "ok",
		"version": version.Version,
	})
}

func (h *Handler) readAudioFile(r *http.Request, field string) ([]byte, error) {
	f, _, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxAudioBytes))
}

// embedError maps embedding failures to HTTP statuses: an unreachable
// encoder is a 502, anything else a 500.
func (h *Handler) embedError(w http.ResponseWriter, err error) {
	h.log.Error().Err(err).Msg("embedding failed")
	if errors.Is(err, embed.ErrProviderUnavailable) {
		h.jsonError(w, "embedding service unavailable", http.StatusBadGateway)
		return
	}
	h.jsonError(w, "embedding failed: "+err.Error(), http.StatusInternalServerError)
}

// jsonResponse writes a JSON response.
func (h *Handler) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// jsonError writes a JSON error response.
func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
