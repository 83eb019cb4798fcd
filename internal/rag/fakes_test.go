package rag

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mwiater/cirag/internal/corpus"
	"github.com/mwiater/cirag/internal/providers"
	"github.com/mwiater/cirag/internal/vectorindex"
)

// fakeEmbedder maps known texts to fixed vectors.
type fakeEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	err      error
}

func (f *fakeEmbedder) Name() string   { return "fake" }
func (f *fakeEmbedder) Dimension() int { return len(f.fallback) }

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return f.fallback, nil
}

// countingClient counts calls and replies with a fixed answer or error.
type countingClient struct {
	calls   atomic.Int32
	answer  string
	err     error
	panics  bool
	block   <-chan struct{}
	lastReq providers.CompletionRequest
}

func (c *countingClient) Name() string { return "counting" }

func (c *countingClient) Complete(_ context.Context, req providers.CompletionRequest) (providers.Completion, error) {
	c.calls.Add(1)
	c.lastReq = req
	if c.panics {
		panic("client exploded")
	}
	if c.block != nil {
		<-c.block
	}
	if c.err != nil {
		return providers.Completion{}, c.err
	}
	return providers.Completion{Content: c.answer}, nil
}

var errServiceDown = errors.New("503 service unavailable")

const (
	refundQuery  = "refund complaints"
	weatherQuery = "what is the weather today"
)

// refundFixture is the two-chunk refund corpus with a query vector close to
// both chunks and an unrelated query far from both.
func refundFixture(t *testing.T) (*corpus.Store, *vectorindex.Index, *fakeEmbedder) {
	t.Helper()
	store := corpus.NewStore([]corpus.Chunk{
		{ComplaintID: "C1", ChunkID: "1", Text: "refund delayed 3 weeks"},
		{ComplaintID: "C1", ChunkID: "2", Text: "refund denied without explanation"},
	})
	idx, err := vectorindex.New(2, [][]float32{
		{1, 0},
		{0.9, 0.1},
	})
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	emb := &fakeEmbedder{
		vectors: map[string][]float32{
			refundQuery:  {1, 0.05},
			weatherQuery: {-1, -1},
		},
		fallback: []float32{0, 0},
	}
	return store, idx, emb
}

func newTestPipeline(t *testing.T, client providers.CompletionClient) (*Pipeline, *fakeEmbedder) {
	t.Helper()
	store, idx, emb := refundFixture(t)
	retriever := NewRetriever(emb, idx, store, 1.2)
	generator := NewGenerator(client, GeneratorOptions{Temperature: 0.3, Timeout: time.Second})
	return NewPipeline(retriever, generator, nil), emb
}

func mustIndex(t *testing.T, vectors [][]float32) *vectorindex.Index {
	t.Helper()
	idx, err := vectorindex.New(len(vectors[0]), vectors)
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	return idx
}
