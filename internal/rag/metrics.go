package rag

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	documentsIndexedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orgdesk",
			Name:      "documents_indexed_total",
			Help:      "Total policy document indexing runs by outcome",
		},
		[]string{"status"},
	)

	indexedChunksCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "orgdesk",
			Name:      "indexed_chunks_count",
			Help:      "Number of chunks produced per indexing run",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200},
		},
	)

	searchQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orgdesk",
			Name:      "search_queries_total",
			Help:      "Total policy similarity searches",
		},
		[]string{"type"}, // "tool_call", "pre_retrieval"
	)

	searchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "orgdesk",
			Name:      "search_duration_seconds",
			Help:      "Duration of policy similarity searches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	searchResultsCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "orgdesk",
			Name:      "search_results_count",
			Help:      "Number of results returned per similarity search",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10, 15, 20},
		},
	)
)
