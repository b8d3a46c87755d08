// Package metrics registers the agent's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "partdesk"

var (
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "agent",
		Name:      "turns_total",
		Help:      "Turns handled by response kind and route",
	}, []string{"kind", "route"})

	TurnConfidence = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "agent",
		Name:      "turn_confidence",
		Help:      "Confidence attached to returned responses",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.55, 0.6, 0.7, 0.8, 0.9, 1.0},
	})

	TurnLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "agent",
		Name:      "turn_latency_seconds",
		Help:      "End-to-end turn latency",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
	})

	TurnErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "agent",
		Name:      "turn_errors_total",
		Help:      "Turns that failed and were answered with the generic clarification",
	})

	PlannerCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "planner",
		Name:      "cache_lookups_total",
		Help:      "Plan cache lookups by result",
	}, []string{"result"})

	PlannerFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "planner",
		Name:      "fallbacks_total",
		Help:      "Fallback plans used by reason",
	}, []string{"reason"})

	PlannerFollowUps = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "planner",
		Name:      "follow_ups_total",
		Help:      "Turns planned from session state without calling the classifier",
	})

	SearchFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "composer",
		Name:      "search_fallbacks_total",
		Help:      "Search fallbacks taken by stage",
	}, []string{"stage"})

	GeneratorFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "composer",
		Name:      "generator_fallbacks_total",
		Help:      "Deterministic text used instead of generated text, by handler",
	}, []string{"handler"})

	GuardrailBlocks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "guardrails",
		Name:      "blocks_total",
		Help:      "Turns answered by a guardrail, by reason",
	}, []string{"reason"})

	TopicDrifts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "guardrails",
		Name:      "topic_drifts_total",
		Help:      "Session resets caused by an appliance change",
	})
)

var (
	LLMCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "calls_total",
		Help:      "Language model calls by role and result",
	}, []string{"role", "result"})

	LLMTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "tokens_total",
		Help:      "Tokens reported by the provider, by model and direction",
	}, []string{"model", "direction"})

	LLMCostUSD = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "cost_usd_total",
		Help:      "Estimated spend in USD by model",
	}, []string{"model"})
)
