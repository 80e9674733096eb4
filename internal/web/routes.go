// Package web provides the HTTP API for voicedb: speaker registration,
// identification, and voice-authorized transaction verification.
package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/aman-source/voice-db/internal/embed"
	"github.com/aman-source/voice-db/internal/names"
	"github.com/aman-source/voice-db/internal/speaker"
	"github.com/aman-source/voice-db/internal/stt"
	"github.com/aman-source/voice-db/internal/transcript"
)

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Host     string
	Port     int
	Engine   *speaker.Engine
	Provider embed.Provider
	Resolver *names.Resolver
	// Transcriber and Extractor are optional; without them the
	// verify-transaction endpoint reports the service unavailable.
	Transcriber stt.Transcriber
	Extractor   transcript.Extractor
	// MatchThreshold is the minimum similarity for a confident match.
	MatchThreshold float32
	// TransactionThreshold is the minimum similarity to accept the
	// speaker on the transaction endpoint.
	TransactionThreshold float32
	Logger               zerolog.Logger
}

// Server is the voicedb HTTP server.
type Server struct {
	config  ServerConfig
	router  *chi.Mux
	handler *Handler
}

// NewServer creates the HTTP server and wires its routes.
func NewServer(cfg ServerConfig) *Server {
	if cfg.MatchThreshold == 0 {
		cfg.MatchThreshold = 0.45
	}
	if cfg.TransactionThreshold == 0 {
		cfg.TransactionThreshold = 0.5
	}
	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
	}
	s.handler = NewHandler(cfg)
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Route("/voice", func(r chi.Router) {
		r.Post("/register-multi", s.handler.RegisterMulti)
		r.Post("/match", s.handler.Match)
		r.Post("/verify-transaction", s.handler.VerifyTransaction)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handler.APIStatus)
		r.Get("/health", s.handler.Health)
	})
}

// Router returns the chi router for external use.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.config.Logger.Info().Str("addr", addr).Msg("starting http server")
	return http.ListenAndServe(addr, s.router)
}
