package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mwiater/cirag/internal/logging"
	"github.com/mwiater/cirag/internal/providers"
)

const generationErrorPrefix = "generation service error: "

// GeneratorOptions are the completion parameters. Zero values, except
// Temperature, fall back to the hosted Groq defaults.
type GeneratorOptions struct {
	Model        string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
	MaxPassages  int
	Timeout      time.Duration
}

func (o GeneratorOptions) withDefaults() GeneratorOptions {
	if o.Model == "" {
		o.Model = "llama-3.1-8b-instant"
	}
	if o.SystemPrompt == "" {
		o.SystemPrompt = "You are a professional financial assistant."
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 250
	}
	if o.MaxPassages <= 0 {
		o.MaxPassages = DefaultMaxPassages
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return o
}

// Generator turns retrieved passages into an answer via a completion
// service. Service failures never escape as errors from GenerateAnswer.
type Generator struct {
	client providers.CompletionClient
	opts   GeneratorOptions
}

// NewGenerator returns a generator backed by client.
func NewGenerator(client providers.CompletionClient, opts GeneratorOptions) *Generator {
	return &Generator{client: client, opts: opts.withDefaults()}
}

// Options returns the effective completion parameters.
func (g *Generator) Options() GeneratorOptions { return g.opts }

// Prompt renders the user message that would be sent for passages.
func (g *Generator) Prompt(question string, passages []string) string {
	return BuildPrompt(question, passages, g.opts.MaxPassages)
}

// GenerateAnswer returns the sentinel answer for empty passages without
// contacting the service; otherwise it asks the service and converts any
// failure into a descriptive answer.
func (g *Generator) GenerateAnswer(ctx context.Context, question string, passages []string) Generation {
	if len(passages) == 0 {
		return Generation{Text: NoRelevantDataAnswer}
	}

	req := providers.CompletionRequest{
		Model: g.opts.Model,
		Messages: []providers.ChatMessage{
			{Role: providers.RoleSystem, Content: g.opts.SystemPrompt},
			{Role: providers.RoleUser, Content: g.Prompt(question, passages)},
		},
		MaxTokens:   g.opts.MaxTokens,
		Temperature: g.opts.Temperature,
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	out, err := g.complete(ctx, req)
	if err != nil {
		logging.LogEvent("LLM generation failed: %v", err)
		return Generation{Text: generationErrorPrefix + err.Error(), Err: err}
	}
	return Generation{Text: out.Content}
}

type completionResult struct {
	out providers.Completion
	err error
}

// complete runs the client call in its own goroutine so that a client which
// ignores ctx cannot hold the caller past the deadline.
func (g *Generator) complete(ctx context.Context, req providers.CompletionRequest) (providers.Completion, error) {
	if g.client == nil {
		return providers.Completion{}, errors.New("no completion client configured")
	}

	done := make(chan completionResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- completionResult{err: fmt.Errorf("completion client panicked: %v", r)}
			}
		}()
		out, err := g.client.Complete(ctx, req)
		if err == nil && out.Content == "" {
			err = providers.ErrEmptyCompletion
		}
		done <- completionResult{out: out, err: err}
	}()

	select {
	case res := <-done:
		return res.out, res.err
	case <-ctx.Done():
		return providers.Completion{}, fmt.Errorf("completion timed out: %w", ctx.Err())
	}
}
