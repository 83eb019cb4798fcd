// internal/providers/provider.go

// Package providers defines the interface for chat-completion services used
// to generate answers. It provides a common abstraction layer over the
// backends (an OpenAI-compatible remote API, a local llama.cpp server), so the
// answer generator does not depend on any particular transport.
package providers

import (
	"context"
	"errors"
	"strings"
)

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyCompletion is returned when a service answers without any text.
var ErrEmptyCompletion = errors.New("completion contained no content")

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string
	Content string
}

// CompletionRequest encapsulates a single non-streaming completion call.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// Completion is the text returned by the service plus usage accounting when
// the backend reports it.
type Completion struct {
	Model            string
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// CompletionClient is the interface every completion backend implements.
type CompletionClient interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	// Complete sends req and returns the first choice's content.
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// SanitizeMessages trims whitespace, defaults empty roles to user and drops
// non-assistant messages with no content.
func SanitizeMessages(messages []ChatMessage) []ChatMessage {
	sanitized := make([]ChatMessage, 0, len(messages))
	for _, msg := range messages {
		role := strings.TrimSpace(msg.Role)
		content := strings.TrimSpace(msg.Content)
		if role == "" {
			role = RoleUser
		}
		if role != RoleAssistant && content == "" {
			continue
		}
		sanitized = append(sanitized, ChatMessage{Role: role, Content: content})
	}
	return sanitized
}
