// Package ollama provides a CompletionClient backed by Ollama's /api/chat endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/cirag/internal/logging"
	"github.com/mwiater/cirag/internal/providers"
)

// Provider implements providers.CompletionClient using the Ollama HTTP API.
type Provider struct {
	client *http.Client
	url    string
	name   string
}

// New constructs a Provider for the Ollama server at url.
func New(name, url string, timeout time.Duration) *Provider {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	if strings.TrimSpace(name) == "" {
		name = "ollama"
	}
	return &Provider{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		url:  url,
		name: name,
	}
}

// Name returns the host label.
func (p *Provider) Name() string { return p.name }

// chatResponse is the non-streaming /api/chat reply.
type chatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done            bool  `json:"done"`
	TotalDuration   int64 `json:"total_duration"`
	PromptEvalCount int   `json:"prompt_eval_count"`
	EvalCount       int   `json:"eval_count"`
}

// Complete issues a single non-streaming chat request.
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (providers.Completion, error) {
	payload := map[string]any{
		"model":    req.Model,
		"messages": toMessages(providers.SanitizeMessages(req.Messages)),
		"options":  buildOptions(req),
		"stream":   false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return providers.Completion{}, err
	}
	logging.LogRequest("CIRAG->LLM", p.name, req.Model, body)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return providers.Completion{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return providers.Completion{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.Completion{}, err
	}
	logging.LogRequest("LLM->CIRAG", p.name, req.Model, respBody)

	if resp.StatusCode != http.StatusOK {
		return providers.Completion{}, fmt.Errorf("ollama: /api/chat returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return providers.Completion{}, fmt.Errorf("ollama: decode /api/chat response: %w", err)
	}
	if strings.TrimSpace(result.Message.Content) == "" {
		return providers.Completion{}, providers.ErrEmptyCompletion
	}

	model := result.Model
	if model == "" {
		model = req.Model
	}
	return providers.Completion{
		Model:            model,
		Content:          result.Message.Content,
		PromptTokens:     result.PromptEvalCount,
		CompletionTokens: result.EvalCount,
	}, nil
}

// buildOptions maps request parameters onto Ollama's options object.
func buildOptions(req providers.CompletionRequest) map[string]any {
	opts := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		opts["num_predict"] = req.MaxTokens
	}
	return opts
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func toMessages(in []providers.ChatMessage) []message {
	out := make([]message, len(in))
	for i, m := range in {
		out[i] = message{Role: m.Role, Content: m.Content}
	}
	return out
}
