// internal/providerfactory/factory_test.go
package providerfactory

import (
	"errors"
	"testing"

	"github.com/mwiater/cirag/internal/appconfig"
	"github.com/mwiater/cirag/internal/metrics"
	"github.com/mwiater/cirag/internal/providers/llamacpp"
	"github.com/mwiater/cirag/internal/providers/ollama"
	openaiprovider "github.com/mwiater/cirag/internal/providers/openai"
)

func TestNormalizeType(t *testing.T) {
	cases := map[string]string{
		"":          "openai",
		"Groq":      "openai",
		"openai":    "openai",
		"llama.cpp": "llamacpp",
		"LLAMACPP":  "llamacpp",
		"other":     "other",
	}
	for in, want := range cases {
		if got := normalizeType(in); got != want {
			t.Fatalf("normalizeType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewCompletionClientErrorsOnNilConfig(t *testing.T) {
	if _, err := NewCompletionClient(nil, nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNewCompletionClientRequiresCredential(t *testing.T) {
	cfg := appconfig.Defaults()
	cfg.LLM.APIKeyEnv = "CIRAG_TEST_LLM_KEY"
	t.Setenv("CIRAG_TEST_LLM_KEY", "")

	_, err := NewCompletionClient(&cfg, nil)
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestNewCompletionClientSelectsBackend(t *testing.T) {
	cfg := appconfig.Defaults()
	cfg.LLM.APIKeyEnv = "CIRAG_TEST_LLM_KEY"
	t.Setenv("CIRAG_TEST_LLM_KEY", "gsk_test")

	client, err := NewCompletionClient(&cfg, nil)
	if err != nil {
		t.Fatalf("NewCompletionClient returned error: %v", err)
	}
	if _, ok := client.(*openaiprovider.Provider); !ok {
		t.Fatalf("expected openai provider, got %T", client)
	}
	if client.Name() != "groq" {
		t.Fatalf("expected groq name, got %q", client.Name())
	}

	cfg.LLM.Type = "llamacpp"
	cfg.LLM.BaseURL = "http://localhost:8080"
	client, err = NewCompletionClient(&cfg, nil)
	if err != nil {
		t.Fatalf("NewCompletionClient returned error: %v", err)
	}
	if _, ok := client.(*llamacpp.Provider); !ok {
		t.Fatalf("expected llamacpp provider, got %T", client)
	}

	cfg.LLM.Type = "ollama"
	cfg.LLM.BaseURL = "http://localhost:11434"
	client, err = NewCompletionClient(&cfg, nil)
	if err != nil {
		t.Fatalf("NewCompletionClient returned error: %v", err)
	}
	if _, ok := client.(*ollama.Provider); !ok {
		t.Fatalf("expected ollama provider, got %T", client)
	}

	client, err = NewCompletionClient(&cfg, metrics.NewRecorder())
	if err != nil {
		t.Fatalf("NewCompletionClient returned error: %v", err)
	}
	if _, ok := client.(*metrics.Provider); !ok {
		t.Fatalf("expected metrics wrapper, got %T", client)
	}

	cfg.LLM.Type = "carrier-pigeon"
	if _, err := NewCompletionClient(&cfg, nil); err == nil {
		t.Fatal("expected unsupported type error")
	}
}
