package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	llmCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgdesk",
		Name:      "llm_calls_total",
		Help:      "Chat completions requested from the LLM provider, by outcome.",
	}, []string{"status"})

	toolExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgdesk",
		Name:      "tool_executions_total",
		Help:      "Tool invocations issued by the model, by tool and outcome.",
	}, []string{"tool", "status"})

	orchestratorSteps = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "orgdesk",
		Name:      "orchestrator_steps",
		Help:      "Reasoning steps consumed per assistant run.",
		Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10},
	})

	assistantRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgdesk",
		Name:      "assistant_requests_total",
		Help:      "Assistant questions handled, by routing decision.",
	}, []string{"route"})
)
