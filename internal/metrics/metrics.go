// Package metrics holds the Prometheus collectors shared by the ingestion and
// query paths. They register with the default registry and are served by the
// API server under /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GitHubRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issue_agent_github_requests_total",
			Help: "GitHub issue list requests by outcome",
		},
		[]string{"outcome"},
	)

	IssuesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "issue_agent_issues_fetched_total",
			Help: "Raw issues returned by the GitHub API",
		},
	)

	DocumentsIndexed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issue_agent_documents_indexed_total",
			Help: "Issue documents written to the vector store",
		},
		[]string{"store"},
	)

	RecordsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "issue_agent_records_skipped_total",
			Help: "Malformed issue records skipped during normalization",
		},
	)

	AgentIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "issue_agent_loop_iterations",
			Help:    "Reasoning steps taken per question",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
	)

	ToolInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issue_agent_tool_invocations_total",
			Help: "Tool invocations by tool and outcome",
		},
		[]string{"tool", "outcome"},
	)

	LoopLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "issue_agent_loop_limit_exceeded_total",
			Help: "Questions abandoned because the iteration bound was reached",
		},
	)
)
