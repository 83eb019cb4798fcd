package rag

import "github.com/mwiater/cirag/internal/corpus"

// NoRelevantDataAnswer is returned when nothing in the corpus is close enough
// to the question to ground an answer.
const NoRelevantDataAnswer = "Not enough relevant data found to answer this query."

// Status tags the outcome of a question.
type Status string

const (
	StatusAnswered        Status = "answered"
	StatusNoData          Status = "no_data"
	StatusGenerationError Status = "generation_error"
	StatusRetrievalError  Status = "retrieval_error"
)

// RetrievedChunk is a corpus chunk plus its distance from the query vector.
type RetrievedChunk struct {
	Chunk    corpus.Chunk
	Distance float32
	Position int
}

// AnswerResult is the structured response to one question.
type AnswerResult struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []string `json:"sources"`
	Status   Status   `json:"status"`
	Error    string   `json:"error,omitempty"`
}

// Generation is the output of the answer generator. When Err is set, Text
// already carries the user-visible error description.
type Generation struct {
	Text string
	Err  error
}
