// Package embedding turns query text into vectors comparable with the
// pre-built complaint index.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync/atomic"

	"github.com/mwiater/cirag/internal/appconfig"
)

// ErrEmptyVector is returned when a backend answers without a vector.
var ErrEmptyVector = errors.New("embedding response returned empty vector")

// Embedder maps text to a fixed-width vector. Implementations are safe for
// concurrent use.
type Embedder interface {
	Name() string
	// Dimension reports the vector width, or 0 until it is known.
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// New builds the embedder selected by cfg.Embedder.Type.
func New(cfg *appconfig.Config) (Embedder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to embedder factory")
	}
	ec := cfg.Embedder
	if strings.TrimSpace(ec.Model) == "" {
		return nil, fmt.Errorf("embedder model is empty")
	}
	client := &http.Client{Timeout: cfg.RequestTimeout()}

	switch strings.ToLower(strings.TrimSpace(ec.Type)) {
	case "", "ollama":
		return NewOllama(client, ec.URL, ec.Model, ec.Dimension), nil
	case "openai":
		key := ""
		if env := strings.TrimSpace(ec.APIKeyEnv); env != "" {
			key = strings.TrimSpace(os.Getenv(env))
			if key == "" {
				return nil, fmt.Errorf("embedder api key: environment variable %s is not set", env)
			}
		}
		return NewOpenAI(client, ec.URL, key, ec.Model, ec.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedder type %q", ec.Type)
	}
}

// dimension tracks a width that is either configured or learned from the
// first successful response.
type dimension struct {
	v atomic.Int64
}

func (d *dimension) get() int { return int(d.v.Load()) }

func (d *dimension) observe(vec []float32) error {
	n := int64(len(vec))
	if d.v.CompareAndSwap(0, n) {
		return nil
	}
	if want := d.v.Load(); want != n {
		return fmt.Errorf("embedding dimension changed: got %d, want %d", n, want)
	}
	return nil
}
