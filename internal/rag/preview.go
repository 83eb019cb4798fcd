package rag

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mwiater/cirag/internal/util"
)

const previewTextRunes = 240

// Preview is what the pipeline would send to the completion service for a
// question, without sending it.
type Preview struct {
	Question    string
	K           int
	Threshold   float64
	MaxPassages int
	Chunks      []RetrievedChunk
	Prompt      string
	RetrievalMs int
}

// Preview runs retrieval and prompt assembly only.
func (p *Pipeline) Preview(ctx context.Context, question string, k int) (Preview, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Preview{}, fmt.Errorf("query is required")
	}
	start := time.Now()
	chunks, err := p.retriever.Retrieve(ctx, question, k)
	if err != nil {
		return Preview{}, err
	}
	pv := Preview{
		Question:    question,
		K:           k,
		Threshold:   p.retriever.Threshold(),
		MaxPassages: p.generator.Options().MaxPassages,
		Chunks:      chunks,
		RetrievalMs: int(time.Since(start) / time.Millisecond),
	}
	if len(chunks) > 0 {
		pv.Prompt = p.generator.Prompt(question, Passages(chunks))
	}
	return pv, nil
}

// WritePreview prints pv as [RAG] status lines.
func WritePreview(w io.Writer, pv Preview) {
	status := func(format string, args ...any) {
		fmt.Fprintf(w, "[RAG] "+format+"\n", args...)
	}

	status("Preview query: %s", pv.Question)
	status("k: %d, threshold: %.3f, context cap: %d", pv.K, pv.Threshold, pv.MaxPassages)
	status("retrieval_ms: %d", pv.RetrievalMs)
	status("chunks: %d", len(pv.Chunks))

	for i, rc := range pv.Chunks {
		status("chunk %d distance=%.6f position=%d source=%q", i+1, rc.Distance, rc.Position, Citation(rc.Chunk))
		status("chunk %d text: %s", i+1, util.TruncateRunes(rc.Chunk.Text, previewTextRunes))
	}

	if pv.Prompt == "" {
		status("no chunk passed the threshold; answer would be: %s", NoRelevantDataAnswer)
		return
	}
	status("prompt:\n%s", pv.Prompt)
}
