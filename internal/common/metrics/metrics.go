// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_turns_processed_total",
			Help: "Total number of conversation turns processed",
		},
		[]string{"workflow"},
	)

	TurnsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_turns_recovered_total",
			Help: "Turns converted to the safe fallback result at the engine boundary",
		},
		[]string{"error_code"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "intake_turn_duration_seconds",
			Help: "Duration of turn processing in seconds",
		},
		[]string{"workflow"},
	)

	CompletionCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_completion_calls_total",
			Help: "Completion-service calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	FallbackActivations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_fallback_activations_total",
			Help: "Fallback tier activations by stage",
		},
		[]string{"stage"},
	)
)
