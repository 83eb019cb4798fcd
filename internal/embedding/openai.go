package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mwiater/cirag/internal/logging"
)

// OpenAI requests vectors from any server speaking the OpenAI embeddings API.
type OpenAI struct {
	client  *openai.Client
	baseURL string
	model   string
	dim     dimension
}

// NewOpenAI returns an embedder for baseURL (for example
// "http://localhost:8080/v1"). An empty baseURL targets api.openai.com.
func NewOpenAI(httpClient *http.Client, baseURL, apiKey, model string, dim int) *OpenAI {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}
	e := &OpenAI{
		client:  openai.NewClientWithConfig(clientConfig),
		baseURL: clientConfig.BaseURL,
		model:   model,
	}
	if dim > 0 {
		e.dim.v.Store(int64(dim))
	}
	return e
}

func (e *OpenAI) Name() string   { return "openai/" + e.model }
func (e *OpenAI) Dimension() int { return e.dim.get() }

// Embed returns the vector for text.
func (e *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	}
	logging.LogRequest("CIRAG->EMBED", e.baseURL, e.model, req)

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, ErrEmptyVector
	}
	logging.LogRequest("EMBED->CIRAG", e.baseURL, e.model, fmt.Sprintf("dims=%d", len(resp.Data[0].Embedding)))

	vec := make([]float32, len(resp.Data[0].Embedding))
	copy(vec, resp.Data[0].Embedding)
	if err := e.dim.observe(vec); err != nil {
		return nil, err
	}
	return vec, nil
}
