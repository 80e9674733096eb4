package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aman-source/voice-db/internal/embed"
	"github.com/aman-source/voice-db/internal/names"
	"github.com/aman-source/voice-db/internal/speaker"
	"github.com/aman-source/voice-db/internal/store"
)

const testDims = 64

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	profiles := store.NewMemoryProfiles()
	engine := speaker.New(store.NewMemoryIndex(testDims), profiles, testDims, zerolog.Nop())
	return NewServer(ServerConfig{
		Engine:   engine,
		Provider: &embed.Static{Dims: testDims},
		Resolver: names.NewResolver(profiles),
		Logger:   zerolog.Nop(),
	})
}

func writeClip(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func resultText(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	tc, ok := res.Content[0].(*sdkmcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want *TextContent", res.Content[0])
	}
	return tc.Text
}

func TestEnrollAndIdentify(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()
	clip := writeClip(t, "alice-voice-sample")

	res, _, err := s.handleEnroll(ctx, nil, EnrollInput{Name: "Alice", AudioPath: clip})
	if err != nil {
		t.Fatalf("handleEnroll: %v", err)
	}
	if res.IsError {
		t.Fatalf("enroll failed: %s", resultText(t, res))
	}

	res, _, err = s.handleIdentify(ctx, nil, IdentifyInput{AudioPath: clip})
	if err != nil {
		t.Fatalf("handleIdentify: %v", err)
	}
	if res.IsError {
		t.Fatalf("identify failed: %s", resultText(t, res))
	}
	if text := resultText(t, res); !strings.Contains(text, "alice") {
		t.Errorf("identify result = %q, want it to name alice", text)
	}
}

func TestIdentifyEmptyRegistry(t *testing.T) {
	s := setupTestServer(t)
	clip := writeClip(t, "whoever")

	res, _, err := s.handleIdentify(context.Background(), nil, IdentifyInput{AudioPath: clip})
	if err != nil {
		t.Fatalf("handleIdentify: %v", err)
	}
	if text := resultText(t, res); !strings.Contains(text, "No enrolled speaker") {
		t.Errorf("result = %q, want no-match message", text)
	}
}

func TestEnrollMissingName(t *testing.T) {
	s := setupTestServer(t)
	res, _, err := s.handleEnroll(context.Background(), nil, EnrollInput{AudioPath: "/tmp/x.wav"})
	if err != nil {
		t.Fatalf("handleEnroll: %v", err)
	}
	if !res.IsError {
		t.Error("expected error result for missing name")
	}
}

func TestEnrollMissingFile(t *testing.T) {
	s := setupTestServer(t)
	res, _, err := s.handleEnroll(context.Background(), nil,
		EnrollInput{Name: "Alice", AudioPath: filepath.Join(t.TempDir(), "missing.wav")})
	if err != nil {
		t.Fatalf("handleEnroll: %v", err)
	}
	if !res.IsError {
		t.Error("expected error result for missing audio file")
	}
}

func TestVerifyUnregistered(t *testing.T) {
	s := setupTestServer(t)
	clip := writeClip(t, "some-voice")

	res, _, err := s.handleVerify(context.Background(), nil, VerifyInput{Name: "Nobody", AudioPath: clip})
	if err != nil {
		t.Fatalf("handleVerify: %v", err)
	}
	if text := resultText(t, res); !strings.Contains(text, "not a registered speaker") {
		t.Errorf("result = %q, want unregistered message", text)
	}
}

func TestVerifyRegistered(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()
	clip := writeClip(t, "alice-voice-sample")

	if res, _, _ := s.handleEnroll(ctx, nil, EnrollInput{Name: "Alice", AudioPath: clip}); res.IsError {
		t.Fatalf("enroll failed: %s", resultText(t, res))
	}

	res, _, err := s.handleVerify(ctx, nil, VerifyInput{Name: "Alice", AudioPath: clip})
	if err != nil {
		t.Fatalf("handleVerify: %v", err)
	}
	if text := resultText(t, res); !strings.Contains(text, "Verification confidence") {
		t.Errorf("result = %q, want a confidence report", text)
	}
}

func TestResolveName(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()
	clip := writeClip(t, "sumanth-voice")

	if res, _, _ := s.handleEnroll(ctx, nil, EnrollInput{Name: "Sumanth", AudioPath: clip}); res.IsError {
		t.Fatalf("enroll failed: %s", resultText(t, res))
	}

	res, _, err := s.handleResolveName(ctx, nil, ResolveNameInput{Name: "sumant"})
	if err != nil {
		t.Fatalf("handleResolveName: %v", err)
	}
	if text := resultText(t, res); !strings.Contains(text, `"sumanth"`) {
		t.Errorf("result = %q, want resolution to sumanth", text)
	}
}

func TestStatus(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()
	clip := writeClip(t, "alice-voice-sample")

	if res, _, _ := s.handleEnroll(ctx, nil, EnrollInput{Name: "Alice", AudioPath: clip}); res.IsError {
		t.Fatalf("enroll failed: %s", resultText(t, res))
	}

	res, _, err := s.handleStatus(ctx, nil, StatusInput{})
	if err != nil {
		t.Fatalf("handleStatus: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "memory") || !strings.Contains(text, "alice") {
		t.Errorf("status = %q, want backend and speaker listed", text)
	}
}
