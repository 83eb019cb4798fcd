// internal/providers/llamacpp/provider.go
// Package llamacpp provides a CompletionClient backed by llama.cpp's OpenAI-compatible HTTP API.
package llamacpp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mwiater/cirag/internal/logging"
	"github.com/mwiater/cirag/internal/providers"
)

// Provider implements providers.CompletionClient against a llama-server
// instance. When the server runs in router mode, the requested model is
// loaded on first use.
type Provider struct {
	client *http.Client
	url    string
	name   string
	ready  sync.Map
}

// New constructs a Provider for the server at url.
func New(name, url string, timeout time.Duration) *Provider {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	if strings.TrimSpace(name) == "" {
		name = url
	}
	if name == "" {
		name = "llama.cpp-host"
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

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete issues a non-streaming chat request.
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (providers.Completion, error) {
	if strings.TrimSpace(req.Model) != "" {
		if err := p.EnsureModelReady(ctx, req.Model); err != nil {
			return providers.Completion{}, err
		}
	}

	payload := map[string]any{
		"model":    req.Model,
		"messages": toOpenAIMessages(providers.SanitizeMessages(req.Messages)),
		"stream":   false,
	}
	applyParameters(payload, req)

	body, err := json.Marshal(payload)
	if err != nil {
		return providers.Completion{}, err
	}
	logging.LogRequest("CIRAG->LLM", p.name, req.Model, body)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return providers.Completion{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return providers.Completion{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.Completion{}, err
	}
	logging.LogRequest("LLM->CIRAG", p.name, req.Model, raw)
	if resp.StatusCode != http.StatusOK {
		return providers.Completion{}, fmt.Errorf("llama.cpp: /v1/chat/completions returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return providers.Completion{}, fmt.Errorf("llama.cpp: parse chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return providers.Completion{}, fmt.Errorf("llama.cpp: chat response contained no choices")
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return providers.Completion{}, fmt.Errorf("llama.cpp: %w", providers.ErrEmptyCompletion)
	}

	model := parsed.Model
	if model == "" {
		model = req.Model
	}
	return providers.Completion{
		Model:            model,
		Content:          content,
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
	}, nil
}

// EnsureModelReady triggers a load request when the router endpoints are
// available. Servers without a router are assumed to serve the model already.
func (p *Provider) EnsureModelReady(ctx context.Context, model string) error {
	if _, ok := p.ready.Load(model); ok {
		return nil
	}
	body, err := json.Marshal(map[string]any{"model": model})
	if err != nil {
		return err
	}

	logging.LogRequest("CIRAG->LLM", p.name, model, body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url+"/models/load", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	logging.LogRequest("LLM->CIRAG", p.name, model, respBody)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusMethodNotAllowed:
		// no router; rely on the single served model
	case resp.StatusCode >= 400 && !isAlreadyLoadedError(resp.StatusCode, respBody):
		return fmt.Errorf("llama.cpp: /models/load returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}
	p.ready.Store(model, struct{}{})
	return nil
}

func isAlreadyLoadedError(statusCode int, body []byte) bool {
	if statusCode != http.StatusBadRequest {
		return false
	}
	text := strings.ToLower(strings.TrimSpace(string(body)))
	if strings.Contains(text, "already loaded") {
		return true
	}
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		return strings.Contains(strings.ToLower(payload.Error.Message), "already loaded")
	}
	return false
}

func applyParameters(payload map[string]any, req providers.CompletionRequest) {
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
		// llama-server's native name for the same limit
		payload["n_predict"] = req.MaxTokens
	}
	payload["temperature"] = req.Temperature
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func toOpenAIMessages(messages []providers.ChatMessage) []openAIMessage {
	out := make([]openAIMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, openAIMessage{Role: msg.Role, Content: msg.Content})
	}
	return out
}
