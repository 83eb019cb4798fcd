package rag

import (
	"fmt"

	"github.com/mwiater/cirag/internal/corpus"
)

// Citation renders the human-readable source label for a chunk.
func Citation(c corpus.Chunk) string {
	return fmt.Sprintf("Complaint %s (chunk %s)", c.ComplaintID, c.ChunkID)
}

// FormatSources returns one citation per retrieved chunk, in retrieval order.
// The result is never nil.
func FormatSources(chunks []RetrievedChunk) []string {
	sources := make([]string, 0, len(chunks))
	for _, rc := range chunks {
		sources = append(sources, Citation(rc.Chunk))
	}
	return sources
}

// Passages extracts the chunk texts in retrieval order.
func Passages(chunks []RetrievedChunk) []string {
	out := make([]string, 0, len(chunks))
	for _, rc := range chunks {
		out = append(out, rc.Chunk.Text)
	}
	return out
}
