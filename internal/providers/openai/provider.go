// Package openai provides a CompletionClient for any OpenAI-compatible chat
// completions API (Groq, OpenAI, vLLM, llama.cpp in server mode).
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mwiater/cirag/internal/logging"
	"github.com/mwiater/cirag/internal/providers"
)

// Provider implements providers.CompletionClient using go-openai.
type Provider struct {
	client  *openai.Client
	name    string
	baseURL string
}

// New returns a provider for baseURL authenticated with apiKey. name labels
// the backend in logs; it defaults to the base URL.
func New(name, baseURL, apiKey string, httpClient *http.Client) *Provider {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}
	if strings.TrimSpace(name) == "" {
		name = clientConfig.BaseURL
	}
	return &Provider{
		client:  openai.NewClientWithConfig(clientConfig),
		name:    name,
		baseURL: clientConfig.BaseURL,
	}
}

// Name returns the configured backend label.
func (p *Provider) Name() string { return p.name }

// Complete sends a single chat completion request.
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (providers.Completion, error) {
	messages := providers.SanitizeMessages(req.Messages)
	chatReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    toOpenAIMessages(messages),
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	}
	logging.LogRequest("CIRAG->LLM", p.name, req.Model, chatReq)

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return providers.Completion{}, fmt.Errorf("%s: chat completion: %w", p.name, err)
	}
	logging.LogRequest("LLM->CIRAG", p.name, req.Model, resp)

	if len(resp.Choices) == 0 {
		return providers.Completion{}, fmt.Errorf("%s: chat response contained no choices", p.name)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return providers.Completion{}, fmt.Errorf("%s: %w", p.name, providers.ErrEmptyCompletion)
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}
	return providers.Completion{
		Model:            model,
		Content:          content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func toOpenAIMessages(messages []providers.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content})
	}
	return out
}
