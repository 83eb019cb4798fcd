// internal/metrics/provider.go
package metrics

import (
	"context"
	"time"

	"github.com/mwiater/cirag/internal/logging"
	"github.com/mwiater/cirag/internal/providers"
)

// Provider is a decorator that wraps a CompletionClient to record metrics.
type Provider struct {
	wrapped  providers.CompletionClient
	recorder *Recorder
}

// NewProvider creates a metrics-enabled client that wraps an existing CompletionClient.
func NewProvider(wrapped providers.CompletionClient, recorder *Recorder) *Provider {
	logging.LogEvent("[METRICS] Wrapping %s with metrics provider", wrapped.Name())
	return &Provider{wrapped: wrapped, recorder: recorder}
}

// Name passes the call through to the wrapped client.
func (p *Provider) Name() string {
	return p.wrapped.Name()
}

// Complete times the wrapped call and records its outcome and token usage.
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (providers.Completion, error) {
	start := time.Now()
	out, err := p.wrapped.Complete(ctx, req)
	p.recorder.ObserveCompletion(p.wrapped.Name(), time.Since(start), out.PromptTokens, out.CompletionTokens, err)
	return out, err
}
