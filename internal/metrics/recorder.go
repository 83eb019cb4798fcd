// Package metrics records pipeline and completion-service telemetry as
// Prometheus collectors on a private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cirag"

// Recorder owns the collectors. The zero value is not usable; a nil
// *Recorder silently drops observations.
type Recorder struct {
	registry *prometheus.Registry

	queries          *prometheus.CounterVec
	queryDuration    prometheus.Histogram
	retrievedChunks  prometheus.Histogram
	completions      *prometheus.CounterVec
	completionTime   *prometheus.HistogramVec
	completionTokens *prometheus.CounterVec
}

// NewRecorder registers the pipeline collectors, plus the Go runtime and
// process collectors, on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.queries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Questions answered, by outcome status.",
		},
		[]string{"status"},
	)
	r.queryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "query_duration_seconds",
		Help:      "End-to-end latency of a question.",
		Buckets:   prometheus.DefBuckets,
	})
	r.retrievedChunks = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "retrieved_chunks",
		Help:      "Chunks surviving the relevance threshold per question.",
		Buckets:   prometheus.LinearBuckets(0, 1, 11),
	})
	r.completions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Completion calls, by backend and outcome.",
		},
		[]string{"backend", "outcome"},
	)
	r.completionTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_duration_seconds",
			Help:      "Latency of completion calls.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"backend"},
	)
	r.completionTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_tokens_total",
			Help:      "Tokens reported by completion backends.",
		},
		[]string{"backend", "kind"},
	)

	r.registry.MustRegister(
		r.queries,
		r.queryDuration,
		r.retrievedChunks,
		r.completions,
		r.completionTime,
		r.completionTokens,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry exposes the underlying registry for tests and custom handlers.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveQuery records one pipeline invocation.
func (r *Recorder) ObserveQuery(status string, retrieved int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.queries.WithLabelValues(status).Inc()
	r.queryDuration.Observe(elapsed.Seconds())
	r.retrievedChunks.Observe(float64(retrieved))
}

// ObserveCompletion records one completion call.
func (r *Recorder) ObserveCompletion(backend string, elapsed time.Duration, promptTokens, outputTokens int, err error) {
	if r == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.completions.WithLabelValues(backend, outcome).Inc()
	r.completionTime.WithLabelValues(backend).Observe(elapsed.Seconds())
	if promptTokens > 0 {
		r.completionTokens.WithLabelValues(backend, "prompt").Add(float64(promptTokens))
	}
	if outputTokens > 0 {
		r.completionTokens.WithLabelValues(backend, "completion").Add(float64(outputTokens))
	}
}
