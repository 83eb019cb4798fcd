package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/mwiater/cirag/internal/logging"
)

const retrievalErrorPrefix = "retrieval error: "

// QueryObserver receives one observation per answered question.
type QueryObserver interface {
	ObserveQuery(status string, retrieved int, elapsed time.Duration)
}

// Pipeline composes retrieval, citation formatting and answer generation.
// It holds no mutable state and may be shared across goroutines.
type Pipeline struct {
	retriever *Retriever
	generator *Generator
	observer  QueryObserver
}

// NewPipeline returns a pipeline. observer may be nil.
func NewPipeline(retriever *Retriever, generator *Generator, observer QueryObserver) *Pipeline {
	return &Pipeline{retriever: retriever, generator: generator, observer: observer}
}

// Retriever exposes the pipeline's retriever.
func (p *Pipeline) Retriever() *Retriever { return p.retriever }

// Generator exposes the pipeline's generator.
func (p *Pipeline) Generator() *Generator { return p.generator }

// AnswerWithSources answers question from the k nearest chunks. It always
// returns a well-formed result; failures are reported through Status.
func (p *Pipeline) AnswerWithSources(ctx context.Context, question string, k int) AnswerResult {
	start := time.Now()
	result := AnswerResult{Question: question, Sources: []string{}}

	chunks, err := p.retrieve(ctx, question, k)
	if err != nil {
		logging.LogEvent("retrieval failed: %v", err)
		result.Answer = retrievalErrorPrefix + err.Error()
		result.Status = StatusRetrievalError
		result.Error = err.Error()
		p.finish(result, k, 0, start)
		return result
	}

	result.Sources = FormatSources(chunks)
	gen := p.generator.GenerateAnswer(ctx, question, Passages(chunks))
	result.Answer = gen.Text

	switch {
	case len(chunks) == 0:
		result.Status = StatusNoData
	case gen.Err != nil:
		result.Status = StatusGenerationError
		result.Error = gen.Err.Error()
	default:
		result.Status = StatusAnswered
	}
	p.finish(result, k, len(chunks), start)
	return result
}

func (p *Pipeline) retrieve(ctx context.Context, question string, k int) (chunks []RetrievedChunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			chunks, err = nil, fmt.Errorf("retriever panicked: %v", r)
		}
	}()
	return p.retriever.Retrieve(ctx, question, k)
}

func (p *Pipeline) finish(result AnswerResult, k, retrieved int, start time.Time) {
	elapsed := time.Since(start)
	logging.LogQuery(result.Question, k, retrieved, string(result.Status), elapsed)
	if p.observer != nil {
		p.observer.ObserveQuery(string(result.Status), retrieved, elapsed)
	}
}
