package rag

import "strings"

// DefaultMaxPassages is the context cap applied when a caller passes a
// non-positive limit.
const DefaultMaxPassages = 3

const promptTemplate = `You are a financial customer support analyst.

Use ONLY the context below to answer the question.
If insufficient info is available, say so clearly.

Context:
{context}

Question:
{question}

Answer in clear, concise bullet points (4–8 max).`

// BuildPrompt renders the grounded-answer prompt from at most maxPassages
// passages, joined by a blank line.
func BuildPrompt(question string, passages []string, maxPassages int) string {
	if maxPassages <= 0 {
		maxPassages = DefaultMaxPassages
	}
	if len(passages) > maxPassages {
		passages = passages[:maxPassages]
	}
	r := strings.NewReplacer(
		"{context}", strings.Join(passages, "\n\n"),
		"{question}", question,
	)
	return r.Replace(promptTemplate)
}
