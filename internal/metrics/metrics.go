// Package metrics provides Prometheus metrics for generation, assistant and
// HTTP activity. Labels stay low cardinality: no session IDs or titles.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Assistant outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeNoAPIKey = "no_api_key"
)

// Metrics owns a private registry so tests and multiple servers never clash
// on the global default registerer. A nil *Metrics is a valid no-op.
type Metrics struct {
	registry *prometheus.Registry

	generations       prometheus.Counter
	ideasGenerated    *prometheus.CounterVec
	assistantRequests *prometheus.CounterVec
	assistantLatency  prometheus.Histogram
	httpRequests      *prometheus.CounterVec
	sessionsPruned    prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		generations: factory.NewCounter(prometheus.CounterOpts{
			Name: "cfpgen_generations_total",
			Help: "Total number of idea generation runs.",
		}),
		ideasGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cfpgen_ideas_generated_total",
			Help: "Total number of ideas returned to users, by idea type.",
		}, []string{"type"}),
		assistantRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cfpgen_assistant_requests_total",
			Help: "Total number of assistant chat requests, by outcome.",
		}, []string{"outcome"}),
		assistantLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cfpgen_assistant_request_duration_seconds",
			Help:    "Latency of assistant chat requests.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cfpgen_http_requests_total",
			Help: "Total number of HTTP API requests, by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		sessionsPruned: factory.NewCounter(prometheus.CounterOpts{
			Name: "cfpgen_sessions_pruned_total",
			Help: "Total number of expired sessions removed.",
		}),
	}
}

// Generated records one generation run and the types of the returned ideas.
func (m *Metrics) Generated(types []string) {
	if m == nil {
		return
	}
	m.generations.Inc()
	for _, t := range types {
		m.ideasGenerated.WithLabelValues(t).Inc()
	}
}

// AssistantRequest records one assistant call.
func (m *Metrics) AssistantRequest(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.assistantRequests.WithLabelValues(outcome).Inc()
	if outcome != OutcomeNoAPIKey {
		m.assistantLatency.Observe(elapsed.Seconds())
	}
}

// HTTPRequest records one served request.
func (m *Metrics) HTTPRequest(route, method string, code int) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
}

// Pruned records removed sessions.
func (m *Metrics) Pruned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sessionsPruned.Add(float64(n))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
