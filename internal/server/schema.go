package server

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mwiater/cirag/internal/appconfig"
)

// askSchema is the contract for POST /ask bodies.
var askSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"question": map[string]any{
			"type":      "string",
			"minLength": 3,
			"pattern":   `\S`,
		},
		"k": map[string]any{
			"type":    "integer",
			"minimum": appconfig.MinTopK,
			"maximum": appconfig.MaxTopK,
		},
	},
	"required":             []string{"question"},
	"additionalProperties": false,
}

var askSchemaLoader = gojsonschema.NewGoLoader(askSchema)

// AskRequest is a validated query.
type AskRequest struct {
	Question string `json:"question"`
	K        int    `json:"k"`
}

type rawAskRequest struct {
	Question string   `json:"question"`
	K        *float64 `json:"k"`
}

// ValidationError carries the individual schema violations.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("request failed validation: %v", e.Details)
}

// ParseAskRequest validates body against the schema and applies defaultK
// when k is omitted.
func ParseAskRequest(body []byte, defaultK int) (AskRequest, error) {
	result, err := gojsonschema.Validate(askSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return AskRequest{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return AskRequest{}, &ValidationError{Details: details}
	}

	var raw rawAskRequest
	if err := json.Unmarshal(body, &raw); err != nil {
		return AskRequest{}, fmt.Errorf("invalid JSON: %w", err)
	}
	req := AskRequest{Question: raw.Question, K: defaultK}
	if raw.K != nil {
		req.K = int(*raw.K)
	}
	return req, nil
}
