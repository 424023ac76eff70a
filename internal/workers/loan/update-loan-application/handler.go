package updateloanapplication

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"solar-loan-workers/internal/audit"
	"solar-loan-workers/internal/common/camunda"
	"solar-loan-workers/internal/common/errors"
	"solar-loan-workers/internal/common/logger"
	"solar-loan-workers/internal/common/metrics"
	"solar-loan-workers/internal/common/validation"
	"solar-loan-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "update-loan-application"

var inputValidator = validation.MustValidator(TaskType, validation.UpdateLoanSchema)

type DraftStore interface {
	Get(ctx context.Context, id string) (*models.LoanApplication, error)
	UpdateDraft(ctx context.Context, loan *models.LoanApplication) error
}

type Handler struct {
	config *Config
	loans  DraftStore
	audit  audit.Recorder
	logger logger.Logger
}

func NewHandler(config *Config, loans DraftStore, rec audit.Recorder, log logger.Logger) *Handler {
	if rec == nil {
		rec = audit.Nop{}
	}
	return &Handler{
		config: config,
		loans:  loans,
		audit:  rec,
		logger: log.WithFields(map[string]interface{}{logger.FieldTaskType: TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := camunda.DecodeVariables(job, &input); err != nil {
		h.fail(ctx, client, job, errors.NewLoanValidationFailedError(err.Error()))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
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

// Execute applies the patch to a draft owned by the user. Loans of other users are
// reported as not found.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := inputValidator.Validate(input)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, errors.NewLoanValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
	}

	loan, err := h.loans.Get(ctx, input.LoanID)
	if err != nil {
		if stderrors.Is(err, models.ErrLoanNotFound) {
			return nil, errors.NewLoanNotFoundError(input.LoanID)
		}
		return nil, errors.NewQueryExecutionFailedError("loan.get", err)
	}
	if loan.UserID != input.UserID {
		return nil, errors.NewLoanNotFoundError(input.LoanID)
	}
	if loan.Status != models.StatusDraft {
		return nil, errors.NewLoanNotDraftError(loan.ID, string(loan.Status))
	}

	input.Changes.Apply(loan)
	if err := h.loans.UpdateDraft(ctx, loan); err != nil {
		// Submitted between the read and the write.
		if stderrors.Is(err, models.ErrLoanNotDraft) {
			return nil, errors.NewLoanNotDraftError(loan.ID, "submitted")
		}
		return nil, errors.NewQueryExecutionFailedError("loan.update_draft", err)
	}

	h.audit.Record(ctx, audit.NewLoanEvent(audit.EventLoanUpdated, loan, map[string]interface{}{
		"changes": input.Changes,
	}))

	return &Output{
		LoanID:    loan.ID,
		Status:    loan.Status,
		UpdatedAt: loan.UpdatedAt,
	}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	errors.NewErrorHandler(h.logger).HandleJobError(ctx, client, job, err)
}
