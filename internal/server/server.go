// Package server exposes the answer pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mwiater/cirag/internal/appconfig"
	"github.com/mwiater/cirag/internal/logging"
	"github.com/mwiater/cirag/internal/rag"
)

const (
	maxBodyBytes  = 1 << 20
	healthMessage = "Customer Intelligence API is running"
)

// Answerer is the pipeline operation the API serves.
type Answerer interface {
	AnswerWithSources(ctx context.Context, question string, k int) rag.AnswerResult
}

// Server routes API requests to an Answerer.
type Server struct {
	answerer Answerer
	metrics  http.Handler
	defaultK int
	timeout  time.Duration
}

// New returns a Server. metrics may be nil to omit /metrics. writeTimeout
// bounds a whole request and should exceed the generation timeout.
func New(answerer Answerer, metrics http.Handler, defaultK int, writeTimeout time.Duration) *Server {
	if defaultK < appconfig.MinTopK || defaultK > appconfig.MaxTopK {
		defaultK = appconfig.DefaultTopK
	}
	if writeTimeout <= 0 {
		writeTimeout = 90 * time.Second
	}
	return &Server{answerer: answerer, metrics: metrics, defaultK: defaultK, timeout: writeTimeout}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(logRequests)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ask", s.handleAsk).Methods(http.MethodPost)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.timeout,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.LogEvent("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logging.LogEvent("shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse is returned for rejected requests.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Message: healthMessage})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "could not read request body", Details: []string{err.Error()}})
		return
	}

	req, err := ParseAskRequest(body, s.defaultK)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request", Details: verr.Details})
			return
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON", Details: []string{err.Error()}})
		return
	}

	result := s.answerer.AnswerWithSources(r.Context(), req.Question, req.K)
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.LogEvent("[HTTP] %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Truncate(time.Millisecond))
	})
}
