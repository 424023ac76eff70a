package createloanapplication

import (
	"context"
	"strings"
	"time"

	"solar-loan-workers/internal/audit"
	"solar-loan-workers/internal/common/camunda"
	"solar-loan-workers/internal/common/errors"
	"solar-loan-workers/internal/common/logger"
	"solar-loan-workers/internal/common/metrics"
	"solar-loan-workers/internal/common/validation"
	"solar-loan-workers/internal/models"
	"solar-loan-workers/internal/services/eligibility"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "create-loan-application"

var inputValidator = validation.MustValidator(TaskType, validation.CreateLoanSchema)

// LoanCreator persists a new draft.
type LoanCreator interface {
	Create(ctx context.Context, loan *models.LoanApplication) error
}

type Handler struct {
	config *Config
	loans  LoanCreator
	audit  audit.Recorder
	logger logger.Logger
}

func NewHandler(config *Config, loans LoanCreator, rec audit.Recorder, log logger.Logger) *Handler {
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

// Execute validates the application, pre-qualifies it and stores it as a draft.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := inputValidator.Validate(input)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, errors.NewLoanValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
	}

	prequal := eligibility.Prequalify(input.AnnualIncome, input.LoanAmount, input.ExistingEMI)

	loan := &models.LoanApplication{
		UserID:           input.UserID,
		AnnualIncome:     input.AnnualIncome,
		ExistingLoans:    input.ExistingLoans,
		LoanAmount:       input.LoanAmount,
		LoanTenureYears:  input.LoanTenureYears,
		InterestRate:     input.InterestRate,
		SystemCapacityKW: input.SystemCapacityKW,
		RoofAreaSqft:     input.RoofAreaSqft,
		State:            input.State,
		SystemType:       input.SystemType,
		PANNumber:        input.PANNumber,
		Status:           models.StatusDraft,
	}
	if err := h.loans.Create(ctx, loan); err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	h.audit.Record(ctx, audit.NewLoanEvent(audit.EventLoanCreated, loan, map[string]interface{}{
		"loan_amount":     loan.LoanAmount,
		"prequalified":    prequal.Prequalified,
		"max_loan_amount": prequal.MaxLoanAmount,
	}))
	h.logger.Info("loan application created", map[string]interface{}{
		logger.FieldLoanID: loan.ID,
		logger.FieldUserID: loan.UserID,
		"prequalified":     prequal.Prequalified,
	})

	return &Output{
		LoanID:        loan.ID,
		Status:        loan.Status,
		Prequalified:  prequal.Prequalified,
		MaxLoanAmount: prequal.MaxLoanAmount,
		PrequalReason: prequal.Reason,
	}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	errors.NewErrorHandler(h.logger).HandleJobError(ctx, client, job, err)
}
