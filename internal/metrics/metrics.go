// Package metrics exposes Prometheus counters for chat turns and tool usage.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Turn outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeTimeout  = "timeout"
	OutcomeRejected = "rejected"
)

type Metrics struct {
	registry    *prometheus.Registry
	turns       *prometheus.CounterVec
	toolCalls   *prometheus.CounterVec
	escalations prometheus.Counter
	duration    prometheus.Histogram
	rounds      prometheus.Histogram
}

// New builds a private registry so tests and multiple servers do not collide.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "synapse",
			Name:      "chat_turns_total",
			Help:      "Chat turns by outcome.",
		}, []string{"outcome"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "synapse",
			Name:      "tool_calls_total",
			Help:      "Tool executions by tool name.",
		}, []string{"tool"}),
		escalations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "synapse",
			Name:      "escalations_total",
			Help:      "Turns that created a support ticket.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "synapse",
			Name:      "chat_turn_duration_seconds",
			Help:      "Wall time of a chat turn.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		}),
		rounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "synapse",
			Name:      "chat_turn_rounds",
			Help:      "Model rounds per successful turn.",
			Buckets:   prometheus.LinearBuckets(1, 1, 8),
		}),
	}
	m.registry.MustRegister(
		m.turns, m.toolCalls, m.escalations, m.duration, m.rounds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveTurn records a finished turn. tools and rounds are ignored unless the
// outcome is a success.
func (m *Metrics) ObserveTurn(outcome string, d time.Duration, tools []string, escalated bool, rounds int) {
	m.turns.WithLabelValues(outcome).Inc()
	m.duration.Observe(d.Seconds())
	if outcome != OutcomeSuccess {
		return
	}
	for _, t := range tools {
		m.toolCalls.WithLabelValues(t).Inc()
	}
	if escalated {
		m.escalations.Inc()
	}
	m.rounds.Observe(float64(rounds))
}

// ObserveRejected records input refused before the agent ran.
func (m *Metrics) ObserveRejected() {
	m.turns.WithLabelValues(OutcomeRejected).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
