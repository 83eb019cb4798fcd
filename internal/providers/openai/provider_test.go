package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mwiater/cirag/internal/providers"
)

func TestProviderComplete(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected auth header %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","model":"llama-3.1-8b-instant",
			"choices":[{"index":0,"message":{"role":"assistant","content":" - refunds are slow \n"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":42,"completion_tokens":7,"total_tokens":49}}`))
	}))
	defer server.Close()

	p := New("groq", server.URL+"/v1", "key", server.Client())
	got, err := p.Complete(context.Background(), providers.CompletionRequest{
		Model: "llama-3.1-8b-instant",
		Messages: []providers.ChatMessage{
			{Role: providers.RoleSystem, Content: "You are a professional financial assistant."},
			{Role: providers.RoleUser, Content: "prompt"},
		},
		MaxTokens:   250,
		Temperature: 0.3,
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if got.Content != "- refunds are slow" {
		t.Fatalf("unexpected content %q", got.Content)
	}
	if got.PromptTokens != 42 || got.CompletionTokens != 7 {
		t.Fatalf("unexpected usage: %+v", got)
	}
	if p.Name() != "groq" {
		t.Fatalf("unexpected name %q", p.Name())
	}

	if captured["model"] != "llama-3.1-8b-instant" {
		t.Fatalf("unexpected model in payload: %v", captured["model"])
	}
	if captured["max_tokens"] != float64(250) {
		t.Fatalf("unexpected max_tokens: %v", captured["max_tokens"])
	}
	temp, _ := captured["temperature"].(float64)
	if temp < 0.29 || temp > 0.31 {
		t.Fatalf("unexpected temperature: %v", captured["temperature"])
	}
	msgs, _ := captured["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %v", captured["messages"])
	}
	first, _ := msgs[0].(map[string]any)
	if first["role"] != "system" {
		t.Fatalf("expected system message first, got %v", first)
	}
}

func TestProviderCompleteFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		empty  bool
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":{"message":"boom","type":"server_error"}}`},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`},
		{name: "empty content", status: http.StatusOK, body: `{"choices":[{"message":{"role":"assistant","content":"  "}}]}`, empty: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := New("", server.URL+"/v1", "key", server.Client())
			_, err := p.Complete(context.Background(), providers.CompletionRequest{
				Model:    "m",
				Messages: []providers.ChatMessage{{Role: "user", Content: "q"}},
			})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.empty && !errors.Is(err, providers.ErrEmptyCompletion) {
				t.Fatalf("expected ErrEmptyCompletion, got %v", err)
			}
		})
	}
}
