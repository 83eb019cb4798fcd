package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/mwiater/cirag/internal/corpus"
	"github.com/mwiater/cirag/internal/embedding"
	"github.com/mwiater/cirag/internal/logging"
	"github.com/mwiater/cirag/internal/vectorindex"
)

// ErrMisaligned is returned when an index position has no corpus row.
var ErrMisaligned = errors.New("vector index and corpus are misaligned")

// Searcher is the nearest-neighbor lookup the retriever needs.
type Searcher interface {
	Search(query []float32, k int) ([]vectorindex.Neighbor, error)
}

// ChunkLookup resolves index positions to corpus rows.
type ChunkLookup interface {
	At(i int) (corpus.Chunk, bool)
}

// Retriever embeds a question, searches the index and keeps the neighbors
// closer than the relevance threshold.
type Retriever struct {
	embedder  embedding.Embedder
	index     Searcher
	store     ChunkLookup
	threshold float64
}

// NewRetriever wires the retrieval collaborators. Distances at or above
// threshold are discarded.
func NewRetriever(embedder embedding.Embedder, index Searcher, store ChunkLookup, threshold float64) *Retriever {
	return &Retriever{
		embedder:  embedder,
		index:     index,
		store:     store,
		threshold: threshold,
	}
}

// Threshold returns the relevance cut-off.
func (r *Retriever) Threshold() float64 { return r.threshold }

// Retrieve returns at most k chunks in ascending distance order. An empty
// result is not an error.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]RetrievedChunk, error) {
	if k < 1 {
		k = 1
	}

	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	neighbors, err := r.index.Search(vec, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	if len(neighbors) == 0 || neighbors[0].Position == vectorindex.NoMatch {
		logging.LogEvent("Retrieved 0 chunks for query.")
		return nil, nil
	}

	results := make([]RetrievedChunk, 0, len(neighbors))
	for _, n := range neighbors {
		if n.Position == vectorindex.NoMatch {
			continue
		}
		chunk, ok := r.store.At(n.Position)
		if !ok {
			return nil, fmt.Errorf("%w: position %d", ErrMisaligned, n.Position)
		}
		if float64(n.Distance) >= r.threshold {
			continue
		}
		results = append(results, RetrievedChunk{Chunk: chunk, Distance: n.Distance, Position: n.Position})
	}

	logging.LogEvent("Retrieved %d chunks for query.", len(results))
	return results, nil
}
