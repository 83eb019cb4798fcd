package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mwiater/cirag/internal/appconfig"
)

func TestOllamaEmbed(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		_, _ = w.Write([]byte(`{"embedding":[0.5,-1,2]}`))
	}))
	defer server.Close()

	e := NewOllama(server.Client(), server.URL+"/", "all-minilm", 0)
	if e.Dimension() != 0 {
		t.Fatalf("expected unknown dimension before first call, got %d", e.Dimension())
	}
	vec, err := e.Embed(context.Background(), "refund delayed")
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.5 || vec[1] != -1 || vec[2] != 2 {
		t.Fatalf("unexpected vector: %v", vec)
	}
	if e.Dimension() != 3 {
		t.Fatalf("expected learned dimension 3, got %d", e.Dimension())
	}
	if captured["model"] != "all-minilm" || captured["prompt"] != "refund delayed" {
		t.Fatalf("unexpected payload: %v", captured)
	}
}

func TestOllamaEmbedErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "empty") {
			_, _ = w.Write([]byte(`{"embedding":[]}`))
			return
		}
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	e := NewOllama(server.Client(), server.URL, "missing", 0)
	_, err := e.Embed(context.Background(), "anything")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error, got %v", err)
	}
	if _, err := e.Embed(context.Background(), "empty"); !errors.Is(err, ErrEmptyVector) {
		t.Fatalf("expected ErrEmptyVector, got %v", err)
	}
}

func TestOllamaPinnedDimensionRejectsMismatch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":[1,2]}`))
	}))
	defer server.Close()

	e := NewOllama(server.Client(), server.URL, "m", 4)
	if e.Dimension() != 4 {
		t.Fatalf("expected pinned dimension 4, got %d", e.Dimension())
	}
	if _, err := e.Embed(context.Background(), "q"); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestOpenAIEmbed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.25,0.75]}],"model":"bge"}`))
	}))
	defer server.Close()

	e := NewOpenAI(server.Client(), server.URL+"/v1", "secret", "bge", 0)
	vec, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}
	if len(vec) != 2 || vec[1] != 0.75 {
		t.Fatalf("unexpected vector: %v", vec)
	}
	if e.Dimension() != 2 {
		t.Fatalf("expected dimension 2, got %d", e.Dimension())
	}
}

func TestNewSelectsBackend(t *testing.T) {
	cfg := appconfig.Defaults()
	e, err := New(&cfg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, ok := e.(*Ollama); !ok {
		t.Fatalf("expected Ollama embedder, got %T", e)
	}

	cfg.Embedder.Type = "openai"
	cfg.Embedder.APIKeyEnv = "CIRAG_TEST_EMBED_KEY"
	t.Setenv("CIRAG_TEST_EMBED_KEY", "")
	if _, err := New(&cfg); err == nil {
		t.Fatal("expected missing key error")
	}
	t.Setenv("CIRAG_TEST_EMBED_KEY", "k")
	e, err = New(&cfg)
	if err != nil {
		t.Fatalf("New openai error: %v", err)
	}
	if _, ok := e.(*OpenAI); !ok {
		t.Fatalf("expected OpenAI embedder, got %T", e)
	}

	cfg.Embedder.Type = "word2vec"
	if _, err := New(&cfg); err == nil {
		t.Fatal("expected unsupported type error")
	}
	if _, err := New(nil); err == nil {
		t.Fatal("expected nil config error")
	}
}
