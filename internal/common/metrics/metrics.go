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
)

// Loan workflow metrics.
var (
	LoanWorkflowRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_workflow_runs_total",
			Help: "Loan workflow runs by outcome (completed, rejected, precondition_failed)",
		},
		[]string{"outcome"},
	)

	LoanWorkflowStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loan_workflow_step_duration_seconds",
			Help:    "Duration of each loan workflow step including persistence",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"step"},
	)

	LoanWorkflowStepFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_workflow_step_failures_total",
			Help: "Loan workflow steps that ended the run in rejected",
		},
		[]string{"step"},
	)

	CreditCheckLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_check_lookups_total",
			Help: "Credit checks served by source (cache, store, bureau)",
		},
		[]string{"source"},
	)

	AuditSinkFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_sink_failures_total",
			Help: "Audit events a sink failed to record",
		},
		[]string{"sink"},
	)

	LoansStuck = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "loans_stuck",
			Help: "In-progress loans with no checkpoint within loan.stuck_after",
		},
	)
)
