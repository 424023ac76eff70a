package submitloanapplication

import (
	"context"
	stderrors "errors"
	"time"

	"solar-loan-workers/internal/common/camunda"
	"solar-loan-workers/internal/common/errors"
	"solar-loan-workers/internal/common/logger"
	"solar-loan-workers/internal/common/metrics"
	"solar-loan-workers/internal/models"
	"solar-loan-workers/internal/workflow"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "submit-loan-application"

type Submitter interface {
	Submit(ctx context.Context, loanID string) (*models.LoanApplication, error)
}

type Handler struct {
	config    *Config
	submitter Submitter
	logger    logger.Logger
}

func NewHandler(config *Config, submitter Submitter, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		submitter: submitter,
		logger:    log.WithFields(map[string]interface{}{logger.FieldTaskType: TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		logger.FieldJobKey:   job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := camunda.DecodeVariables(job, &input); err != nil {
		h.fail(ctx, client, job, errors.NewLoanValidationFailedError(err.Error()))
		return
	}

	output, err := h.Execute(ctx, &input)

	// The workflow run is detached from ctx and may outlast it.
	doneCtx, doneCancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer doneCancel()

	if err != nil {
		h.fail(doneCtx, client, job, err)
		return
	}

	if err := camunda.CompleteJob(doneCtx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			logger.FieldJobKey: job.Key,
			logger.FieldLoanID: output.LoanID,
			"error":            err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

// Execute submits the loan and runs the workflow. A rejected run is a normal outcome and
// completes the job; only precondition and infrastructure failures become job errors.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.LoanID == "" {
		return nil, errors.NewLoanValidationFailedError("loanId is required")
	}

	loan, err := h.submitter.Submit(ctx, input.LoanID)

	var stepErr *workflow.StepError
	switch {
	case err == nil:
		return outputFor(loan), nil
	case stderrors.As(err, &stepErr):
		out := outputFor(loan)
		out.FailedStep = stepErr.Step
		out.Error = stepErr.Cause.Error()
		out.ErrorCode = string(stepFailure(stepErr).Code)
		return out, nil
	case stderrors.Is(err, workflow.ErrLoanNotFound):
		return nil, errors.NewLoanNotFoundError(input.LoanID)
	case stderrors.Is(err, workflow.ErrLoanNotDraft):
		status := "unknown"
		if loan != nil {
			status = string(loan.Status)
		}
		return nil, errors.NewLoanNotDraftError(input.LoanID, status)
	default:
		return nil, errors.NewQueryExecutionFailedError("loan.submit", err)
	}
}

// stepFailure classifies a rejected run for the process. It is reported in the output,
// never raised: the loan is already rejected and retrying the job cannot change that.
func stepFailure(e *workflow.StepError) *errors.StandardError {
	if stderrors.Is(e.Cause, context.DeadlineExceeded) {
		return errors.NewTimeoutError(e.Step, e.Cause)
	}
	switch e.Step {
	case models.StepKYC:
		return errors.NewKYCServiceError(e.Cause)
	case models.StepCIBIL:
		return errors.NewCreditBureauError(e.Cause)
	case models.StepAIEligibility:
		return errors.NewEligibilityError(e.Cause)
	default:
		return errors.NewWorkflowStepFailedError(e.Step, e.Cause)
	}
}

func outputFor(loan *models.LoanApplication) *Output {
	return &Output{
		LoanID:           loan.ID,
		Status:           loan.Status,
		CurrentStep:      loan.CurrentStep,
		EMIAmount:        loan.EMIAmount,
		SubsidyAmount:    loan.SubsidyAmount,
		EligibilityScore: loan.AIEligibilityScore,
	}
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	errors.NewErrorHandler(h.logger).HandleJobError(ctx, client, job, err)
}
