// internal/providerfactory/factory.go
package providerfactory

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/mwiater/cirag/internal/appconfig"
	"github.com/mwiater/cirag/internal/logging"
	"github.com/mwiater/cirag/internal/metrics"
	"github.com/mwiater/cirag/internal/providers"
	"github.com/mwiater/cirag/internal/providers/llamacpp"
	"github.com/mwiater/cirag/internal/providers/ollama"
	openaiprovider "github.com/mwiater/cirag/internal/providers/openai"
)

// ErrMissingCredential is returned when the configured API key variable is unset.
var ErrMissingCredential = errors.New("missing completion service credential")

// NewCompletionClient selects and configures the completion backend named by
// cfg.LLM.Type and wraps it with metrics collection when a recorder is given.
func NewCompletionClient(cfg *appconfig.Config, recorder *metrics.Recorder) (providers.CompletionClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}

	var client providers.CompletionClient
	switch llmType := normalizeType(cfg.LLM.Type); llmType {
	case "openai":
		env := strings.TrimSpace(cfg.LLM.APIKeyEnv)
		key := ""
		if env != "" {
			key = strings.TrimSpace(os.Getenv(env))
		}
		if key == "" {
			return nil, fmt.Errorf("%w: set %s", ErrMissingCredential, env)
		}
		httpClient := &http.Client{Timeout: cfg.GenerationTimeout()}
		client = openaiprovider.New(cfg.LLM.Name, cfg.LLM.BaseURL, key, httpClient)
	case "llamacpp":
		client = llamacpp.New(cfg.LLM.Name, cfg.LLM.BaseURL, cfg.GenerationTimeout())
	case "ollama":
		client = ollama.New(cfg.LLM.Name, cfg.LLM.BaseURL, cfg.GenerationTimeout())
	default:
		return nil, fmt.Errorf("unsupported llm type %q", cfg.LLM.Type)
	}
	logging.LogEvent("Completion backend ready: %s (%s)", client.Name(), cfg.LLM.Model)

	if recorder != nil {
		client = metrics.NewProvider(client, recorder)
	}
	return client, nil
}

func normalizeType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "", "openai", "groq":
		return "openai"
	case "llamacpp", "llama.cpp":
		return "llamacpp"
	default:
		return strings.ToLower(strings.TrimSpace(t))
	}
}
