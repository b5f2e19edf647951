package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/riverline-ai/refinery/internal/corpus"
	"github.com/riverline-ai/refinery/internal/optimizer"
	"github.com/riverline-ai/refinery/internal/prompts"
	"github.com/riverline-ai/refinery/internal/skills"
	"github.com/riverline-ai/refinery/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v := []float32{1, 0, 0}
	if strings.Contains(text, "think") {
		v = []float32{0, 1, 0}
	}
	return v, nil
}

type noopGenerator struct{}

func (noopGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return "ok", nil
}

func (noopGenerator) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return `{"objection": "", "rebuttal": "", "approach": "", "quality_score": 0}`, nil
}

func newTestServer(t *testing.T) (*Server, *skills.Store) {
	t.Helper()
	kv := store.NewMemory()
	logger := discardLogger()
	sk := skills.New(kv, fixedEmbedder{}, logger)
	pr := prompts.New(kv)
	pr.SetBase(context.Background(), prompts.DefaultBasePrompt)
	proc := optimizer.New(sk, corpus.New(kv, logger), pr, noopGenerator{}, optimizer.Options{}, logger)
	return NewServer(8760, sk, proc, logger), sk
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/v1/refinery/status", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["agent"] != "refinery" {
		t.Errorf("expected agent refinery, got %q", body["agent"])
	}
}

func TestSearchSkills(t *testing.T) {
	srv, sk := newTestServer(t)

	if _, err := sk.Store(context.Background(), "too expensive", "show ROI"); err != nil {
		t.Fatalf("store skill: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/v1/skills/search",
		strings.NewReader(`{"query": "price is too high", "k": 1}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Results []skills.Match `json:"results"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(body.Results))
	}
	if body.Results[0].Rebuttal != "show ROI" {
		t.Errorf("expected show ROI, got %q", body.Results[0].Rebuttal)
	}
}

func TestSearchSkills_MissingQuery(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/v1/skills/search", strings.NewReader(`{"k": 3}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestIngestOutcome(t *testing.T) {
	srv, _ := newTestServer(t)

	payload := `{
		"transcript": [{"speaker": "customer", "text": "hello"}],
		"origin": "AI_AGENT",
		"result": "CLOSED_DEAL",
		"country": "US",
		"industry": "general"
	}`
	req := httptest.NewRequest("POST", "/api/v1/outcomes", strings.NewReader(payload))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["call_id"] == "" {
		t.Error("expected a call_id in the response")
	}

	// Give the background pass a moment; it must not panic the server.
	time.Sleep(10 * time.Millisecond)
}

func TestIngestOutcome_EmptyTranscript(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/v1/outcomes", strings.NewReader(`{"origin": "AI_AGENT"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestIngestOutcome_InvalidCallID(t *testing.T) {
	srv, _ := newTestServer(t)

	payload := `{"call_id": "not-a-uuid", "transcript": [{"speaker": "a", "text": "b"}]}`
	req := httptest.NewRequest("POST", "/api/v1/outcomes", strings.NewReader(payload))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
