// Package mcp exposes the voiceprint engine over the Model Context
// Protocol so agents can enroll, identify, and verify speakers from
// local audio files.
package mcp

import (
	"context"
	"fmt"
	"os"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/aman-source/voice-db/internal/embed"
	"github.com/aman-source/voice-db/internal/names"
	"github.com/aman-source/voice-db/internal/speaker"
	"github.com/aman-source/voice-db/internal/version"
)

// EnrollInput is the input for voicedb_enroll.
type EnrollInput struct {
	Name      string `json:"name" jsonschema:"REQUIRED - The person's name to enroll the voice sample under."`
	AudioPath string `json:"audio_path" jsonschema:"REQUIRED - Absolute path to a WAV file containing the person's voice."`
}

// IdentifyInput is the input for voicedb_identify.
type IdentifyInput struct {
	AudioPath string `json:"audio_path" jsonschema:"REQUIRED - Absolute path to a WAV file to identify the speaker of."`
}

// VerifyInput is the input for voicedb_verify.
type VerifyInput struct {
	Name      string `json:"name" jsonschema:"REQUIRED - The claimed identity to verify against."`
	AudioPath string `json:"audio_path" jsonschema:"REQUIRED - Absolute path to a WAV file containing the voice to verify."`
}

// ResolveNameInput is the input for voicedb_resolve_name.
type ResolveNameInput struct {
	Name string `json:"name" jsonschema:"REQUIRED - A possibly misspelled person name to resolve against the registry."`
}

// StatusInput is the input for voicedb_status (empty).
type StatusInput struct{}

// Server wraps the official MCP SDK server around the voiceprint engine.
type Server struct {
	server   *sdkmcp.Server
	engine   *speaker.Engine
	provider embed.Provider
	resolver *names.Resolver
	log      zerolog.Logger
}

// ServerConfig contains dependencies for the MCP server.
type ServerConfig struct {
	Engine   *speaker.Engine
	Provider embed.Provider
	Resolver *names.Resolver
	Logger   zerolog.Logger
}

// NewServer creates an MCP server exposing the voicedb tools.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		engine:   cfg.Engine,
		provider: cfg.Provider,
		resolver: cfg.Resolver,
		log:      cfg.Logger.With().Str("component", "mcp").Logger(),
	}

	s.server = sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "voicedb",
		Version: version.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: "voicedb identifies and verifies speakers by their voice. " +
			"Use voicedb_enroll to register voice samples for a person (three samples recommended), " +
			"voicedb_identify to find out who is speaking in a clip, " +
			"voicedb_verify to check a clip against a claimed identity, " +
			"voicedb_resolve_name to match a possibly misspelled name against the registry, " +
			"and voicedb_status for store statistics.",
	})

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        "voicedb_enroll",
		Description: "Enroll one voice sample for a person. Repeated calls for the same name accumulate samples and refine the person's voiceprint.",
	}, s.handleEnroll)

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        "voicedb_identify",
		Description: "Identify the speaker of an audio clip against all enrolled voiceprints. Returns the best match and a confidence score.",
	}, s.handleIdentify)

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        "voicedb_verify",
		Description: "Verify whether an audio clip was spoken by a claimed person. Distinguishes an unregistered name from a low-confidence voice match.",
	}, s.handleVerify)

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        "voicedb_resolve_name",
		Description: "Resolve a possibly misspelled person name against the registered speakers using exact, substring, and edit-distance matching.",
	}, s.handleResolveName)

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        "voicedb_status",
		Description: "Get statistics about the voiceprint store: backend, profile count, and enrolled speakers.",
	}, s.handleStatus)

	return s
}

// Run starts the MCP server on stdio.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &sdkmcp.StdioTransport{})
}

func textResult(text string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}},
	}
}

func errorResult(format string, args ...any) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

// embedFile reads the audio file and turns it into an embedding.
func (s *Server) embedFile(ctx context.Context, path string) ([]float32, *sdkmcp.CallToolResult) {
	if path == "" {
		return nil, errorResult("audio_path parameter is required")
	}
	audio, err := os.ReadFile(path)
	if err != nil {
		return nil, errorResult("Failed to read audio file: %v", err)
	}
	vec, err := s.provider.Embed(ctx, audio)
	if err != nil {
		return nil, errorResult("Failed to embed audio: %v", err)
	}
	return vec, nil
}

func (s *Server) handleEnroll(ctx context.Context, req *sdkmcp.CallToolRequest, input EnrollInput) (*sdkmcp.CallToolResult, any, error) {
	if input.Name == "" {
		return errorResult("name parameter is required"), nil, nil
	}
	vec, errRes := s.embedFile(ctx, input.AudioPath)
	if errRes != nil {
		return errRes, nil, nil
	}

	id, err := s.engine.Enroll(ctx, input.Name, vec)
	if err != nil {
		return errorResult("Enrollment failed: %v", err), nil, nil
	}

	return textResult(fmt.Sprintf("Enrolled voice sample %s for %q.\nEnroll two more samples for a more robust voiceprint.",
		id, speaker.NormalizeName(input.Name))), nil, nil
}

func (s *Server) handleIdentify(ctx context.Context, req *sdkmcp.CallToolRequest, input IdentifyInput) (*sdkmcp.CallToolResult, any, error) {
	vec, errRes := s.embedFile(ctx, input.AudioPath)
	if errRes != nil {
		return errRes, nil, nil
	}

	match, err := s.engine.Identify(ctx, vec)
	if err != nil {
		return errorResult("Identification failed: %v", err), nil, nil
	}
	if match.PersonName == "" {
		return textResult("No enrolled speaker matched this clip."), nil, nil
	}
	return textResult(fmt.Sprintf("Best match: %s (confidence %.3f)", match.PersonName, match.Confidence)), nil, nil
}

func (s *Server) handleVerify(ctx context.Context, req *sdkmcp.CallToolRequest, input VerifyInput) (*sdkmcp.CallToolResult, any, error) {
	if input.Name == "" {
		return errorResult("name parameter is required"), nil, nil
	}
	vec, errRes := s.embedFile(ctx, input.AudioPath)
	if errRes != nil {
		return errRes, nil, nil
	}

	v, err := s.engine.Verify(ctx, vec, input.Name)
	if err != nil {
		return errorResult("Verification failed: %v", err), nil, nil
	}
	if !v.Registered {
		return textResult(fmt.Sprintf("%q is not a registered speaker.", speaker.NormalizeName(input.Name))), nil, nil
	}
	return textResult(fmt.Sprintf("Verification confidence for %q: %.3f", speaker.NormalizeName(input.Name), v.Confidence)), nil, nil
}

func (s *Server) handleResolveName(ctx context.Context, req *sdkmcp.CallToolRequest, input ResolveNameInput) (*sdkmcp.CallToolResult, any, error) {
	if input.Name == "" {
		return errorResult("name parameter is required"), nil, nil
	}
	res, err := s.resolver.Resolve(ctx, input.Name)
	if err != nil {
		return errorResult("Resolution failed: %v", err), nil, nil
	}
	if !res.Found {
		return textResult(fmt.Sprintf("No registered speaker matches %q.", input.Name)), nil, nil
	}
	return textResult(fmt.Sprintf("%q resolves to registered speaker %q.", input.Name, res.CanonicalName)), nil, nil
}

func (s *Server) handleStatus(ctx context.Context, req *sdkmcp.CallToolRequest, input StatusInput) (*sdkmcp.CallToolResult, any, error) {
	stats, err := s.engine.Stats(ctx)
	if err != nil {
		return errorResult("Error getting stats: %v", err), nil, nil
	}

	var sb strings.Builder
	sb.WriteString("Voiceprint store status:\n\n")
	sb.WriteString(fmt.Sprintf("Index backend: %s\n", stats.IndexBackend))
	sb.WriteString(fmt.Sprintf("Stored profiles: %d\n", stats.ProfileCount))
	sb.WriteString(fmt.Sprintf("Enrolled speakers: %d\n", len(stats.Speakers)))
	if len(stats.Speakers) > 0 {
		sb.WriteString("\nSpeakers:\n")
		for _, name := range stats.Speakers {
			sb.WriteString("  " + name + "\n")
		}
	}
	return textResult(sb.String()), nil, nil
}
