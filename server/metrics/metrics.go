// Package metrics defines the process-wide Prometheus collectors. All
// collectors register on the default registry and are exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatTurns counts completed interactive turns by outcome.
	ChatTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thomas",
		Subsystem: "chat",
		Name:      "turns_total",
		Help:      "Interactive chat turns, partitioned by outcome.",
	}, []string{"status"})

	// StreamedTokens counts text deltas relayed to clients.
	StreamedTokens = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "thomas",
		Subsystem: "chat",
		Name:      "streamed_tokens_total",
		Help:      "Text deltas relayed to clients over the stream endpoint.",
	})

	// LLMTokens counts billable model tokens by direction (input/output).
	LLMTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thomas",
		Subsystem: "llm",
		Name:      "tokens_total",
		Help:      "Billable model tokens, partitioned by direction.",
	}, []string{"direction"})

	// TaskRetries counts background task retry attempts by task name.
	TaskRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "thomas",
		Subsystem: "dispatch",
		Name:      "task_retries_total",
		Help:      "Background task retry attempts, partitioned by task.",
	}, []string{"task"})
)
