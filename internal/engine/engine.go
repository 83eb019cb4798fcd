// Package engine performs the one-time startup work: loading and
// cross-checking the corpus and index, building the embedder and completion
// client, and assembling the answer pipeline.
package engine

import (
	"errors"
	"fmt"

	"github.com/mwiater/cirag/internal/appconfig"
	"github.com/mwiater/cirag/internal/corpus"
	"github.com/mwiater/cirag/internal/embedding"
	"github.com/mwiater/cirag/internal/logging"
	"github.com/mwiater/cirag/internal/metrics"
	"github.com/mwiater/cirag/internal/providerfactory"
	"github.com/mwiater/cirag/internal/providers"
	"github.com/mwiater/cirag/internal/rag"
	"github.com/mwiater/cirag/internal/vectorindex"
)

var (
	// ErrMisaligned reports a corpus and index that disagree on row count.
	ErrMisaligned = rag.ErrMisaligned
	// ErrDimensionMismatch reports an embedder whose vectors cannot be compared with the index.
	ErrDimensionMismatch = errors.New("embedder and index dimensions differ")
)

// Runtime is the immutable set of components shared by every query.
type Runtime struct {
	cfg      appconfig.Config
	store    *corpus.Store
	index    *vectorindex.Index
	embedder embedding.Embedder
	client   providers.CompletionClient
	recorder *metrics.Recorder
	pipeline *rag.Pipeline
}

type options struct {
	embedder embedding.Embedder
	client   providers.CompletionClient
	recorder *metrics.Recorder
}

// Option overrides a component that New would otherwise build from config.
type Option func(*options)

// WithEmbedder supplies the query embedder.
func WithEmbedder(e embedding.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// WithCompletionClient supplies the completion backend. It is used as given,
// without the metrics wrapper.
func WithCompletionClient(c providers.CompletionClient) Option {
	return func(o *options) { o.client = c }
}

// WithRecorder supplies the metrics recorder.
func WithRecorder(r *metrics.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// New loads every artifact named by cfg and returns a ready Runtime. Any
// error is a startup failure.
func New(cfg appconfig.Config, opts ...Option) (*Runtime, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	store, err := corpus.Load(cfg.CorpusPath())
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	index, err := vectorindex.Load(cfg.IndexPath())
	if err != nil {
		return nil, fmt.Errorf("load vector index: %w", err)
	}
	if store.Len() != index.Len() {
		return nil, fmt.Errorf("%w: corpus has %d rows, index has %d", ErrMisaligned, store.Len(), index.Len())
	}
	logging.LogEvent("Loaded %d chunks and a %d-dimensional index", store.Len(), index.Dimension())

	embedder := o.embedder
	if embedder == nil {
		if embedder, err = embedding.New(&cfg); err != nil {
			return nil, fmt.Errorf("configure embedder: %w", err)
		}
	}
	if dim := embedder.Dimension(); dim > 0 && dim != index.Dimension() {
		return nil, fmt.Errorf("%w: %s produces %d, index has %d", ErrDimensionMismatch, embedder.Name(), dim, index.Dimension())
	}

	recorder := o.recorder
	if recorder == nil && cfg.Metrics {
		recorder = metrics.NewRecorder()
	}

	client := o.client
	if client == nil {
		if client, err = providerfactory.NewCompletionClient(&cfg, recorder); err != nil {
			return nil, fmt.Errorf("configure completion client: %w", err)
		}
	}

	retriever := rag.NewRetriever(embedder, index, store, cfg.Threshold())
	generator := rag.NewGenerator(client, rag.GeneratorOptions{
		Model:        cfg.LLM.Model,
		SystemPrompt: cfg.LLM.SystemPrompt,
		MaxTokens:    cfg.MaxTokens(),
		Temperature:  cfg.Temperature(),
		MaxPassages:  cfg.ContextCap(),
		Timeout:      cfg.GenerationTimeout(),
	})

	var observer rag.QueryObserver
	if recorder != nil {
		observer = recorder
	}

	return &Runtime{
		cfg:      cfg,
		store:    store,
		index:    index,
		embedder: embedder,
		client:   client,
		recorder: recorder,
		pipeline: rag.NewPipeline(retriever, generator, observer),
	}, nil
}

// Config returns the configuration the runtime was built from.
func (r *Runtime) Config() appconfig.Config { return r.cfg }

// Pipeline returns the shared answer pipeline.
func (r *Runtime) Pipeline() *rag.Pipeline { return r.pipeline }

// Recorder returns the metrics recorder, or nil when metrics are disabled.
func (r *Runtime) Recorder() *metrics.Recorder { return r.recorder }

// Chunks returns the number of loaded corpus rows.
func (r *Runtime) Chunks() int { return r.store.Len() }

// Dimension returns the index vector width.
func (r *Runtime) Dimension() int { return r.index.Dimension() }

// Backends names the embedder and completion client in use.
func (r *Runtime) Backends() (embedder, completion string) {
	return r.embedder.Name(), r.client.Name()
}
