package calculatesubsidy

import (
	"context"
	stderrors "errors"
	"time"

	"solar-loan-workers/internal/common/camunda"
	"solar-loan-workers/internal/common/errors"
	"solar-loan-workers/internal/common/logger"
	"solar-loan-workers/internal/common/metrics"
	"solar-loan-workers/internal/services/calculation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "calculate-subsidy"

type Handler struct {
	config     *Config
	calculator *calculation.SubsidyCalculator
	logger     logger.Logger
}

func NewHandler(config *Config, calculator *calculation.SubsidyCalculator, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		calculator: calculator,
		logger:     log.WithFields(map[string]interface{}{logger.FieldTaskType: TaskType}),
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
		h.fail(ctx, client, job, errors.NewInvalidCalculationError(err.Error()))
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
			"error":            err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.calculator.Compute(input.SystemCapacityKW, input.State, input.SystemType)
	if err != nil {
		if stderrors.Is(err, calculation.ErrInvalidInput) {
			return nil, errors.NewInvalidCalculationError(err.Error())
		}
		return nil, errors.NewInternalError(err)
	}
	return &Output{Subsidy: result}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	errors.NewErrorHandler(h.logger).HandleJobError(ctx, client, job, err)
}
