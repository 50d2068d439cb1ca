// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	AnalyzerCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_analyzer_calls_total",
			Help: "Outbound content-analyzer calls by analyzer and outcome",
		},
		[]string{"analyzer", "outcome"},
	)

	AnalyzerCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "onboarding_analyzer_call_duration_seconds",
			Help:    "Latency of content-analyzer calls",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"analyzer"},
	)

	SequentialFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onboarding_fusion_sequential_fallback_total",
			Help: "Analyzer fan-outs that ran sequentially because no concurrency slot was available",
		},
	)

	FusionConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "onboarding_fusion_confidence",
			Help:    "Distribution of per-document fusion confidence",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	FusionActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_fusion_recommended_action_total",
			Help: "Recommended actions produced by document fusion",
		},
		[]string{"action"},
	)

	RiskScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "onboarding_risk_score",
			Help:    "Distribution of application risk scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	ApplicationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_application_decisions_total",
			Help: "Application decisions by resulting status and risk level",
		},
		[]string{"status", "risk_level"},
	)

	ContractsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onboarding_contracts_issued_total",
			Help: "Contracts issued for approved applications",
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_notifications_total",
			Help: "Decision notifications by type, channel and outcome",
		},
		[]string{"type", "channel", "outcome"},
	)
)
