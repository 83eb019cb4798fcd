package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mwiater/cirag/internal/logging"
)

// Ollama requests vectors from an Ollama server's /api/embeddings endpoint.
type Ollama struct {
	client *http.Client
	url    string
	model  string
	dim    dimension
}

// NewOllama returns an embedder for the Ollama server at url. A positive
// dim pins the expected vector width.
func NewOllama(client *http.Client, url, model string, dim int) *Ollama {
	if client == nil {
		client = http.DefaultClient
	}
	o := &Ollama{
		client: client,
		url:    strings.TrimRight(url, "/"),
		model:  model,
	}
	if dim > 0 {
		o.dim.v.Store(int64(dim))
	}
	return o
}

func (o *Ollama) Name() string   { return "ollama/" + o.model }
func (o *Ollama) Dimension() int { return o.dim.get() }

type ollamaResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed returns the vector for text.
func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]any{
		"model":  o.model,
		"prompt": text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	logging.LogRequest("CIRAG->EMBED", o.url, o.model, body)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding request failed: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	logging.LogRequest("EMBED->CIRAG", o.url, o.model, raw)

	var parsed ollamaResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse embedding response: %w", err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, ErrEmptyVector
	}

	vec := make([]float32, len(parsed.Embedding))
	for i, v := range parsed.Embedding {
		vec[i] = float32(v)
	}
	if err := o.dim.observe(vec); err != nil {
		return nil, err
	}
	return vec, nil
}
