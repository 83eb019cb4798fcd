// Package apiclient talks to a running cirag API server.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/cirag/internal/logging"
	"github.com/mwiater/cirag/internal/rag"
	"github.com/mwiater/cirag/internal/server"
)

// ErrEmptyBaseURL is returned by New when no server URL is configured.
var ErrEmptyBaseURL = errors.New("api base URL is empty")

// APIError is a non-200 response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Details    []string
}

func (e *APIError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error (%d): %s: %s", e.StatusCode, e.Message, strings.Join(e.Details, "; "))
}

// Client calls the /ask and /health endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for baseURL. timeout bounds each request.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrEmptyBaseURL
	}
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}, nil
}

// Ask posts a question and returns the server's answer record. A k of zero
// leaves the choice to the server's default.
func (c *Client) Ask(ctx context.Context, question string, k int) (rag.AnswerResult, error) {
	body := map[string]any{"question": question}
	if k != 0 {
		body["k"] = k
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return rag.AnswerResult{}, fmt.Errorf("encode ask request: %w", err)
	}
	logging.LogRequest("CIRAG->API", c.baseURL, "", payload)

	var res rag.AnswerResult
	if err := c.do(ctx, http.MethodPost, "/ask", payload, &res); err != nil {
		return rag.AnswerResult{}, err
	}
	logging.LogRequest("API->CIRAG", c.baseURL, "", res.Status)
	return res, nil
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) (server.HealthResponse, error) {
	var res server.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &res); err != nil {
		return server.HealthResponse{}, err
	}
	return res, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var parsed server.ErrorResponse
		if json.Unmarshal(data, &parsed) == nil && parsed.Error != "" {
			apiErr.Message = parsed.Error
			apiErr.Details = parsed.Details
		}
		return apiErr
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
