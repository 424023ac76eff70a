// Package workflow drives a submitted loan through KYC, credit check, eligibility, subsidy
// and EMI, checkpointing status after every step.
package workflow

import (
	"context"
	"fmt"
	"time"

	"solar-loan-workers/internal/audit"
	"solar-loan-workers/internal/common/logger"
	"solar-loan-workers/internal/common/metrics"
	"solar-loan-workers/internal/common/observability"
	"solar-loan-workers/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "solar-loan-workers/workflow"

// Driver runs the loan workflow. Steps run strictly in order; there are no retries and a
// rejected loan is never re-run.
type Driver struct {
	loans  LoanRepository
	c      Collaborators
	opts   Options
	audit  audit.Recorder
	obs    *observability.Observability
	tracer trace.Tracer
	logger logger.Logger
	now    func() time.Time
	steps  []step
}

// NewDriver wires a driver. A nil recorder disables auditing and a nil obs disables otel
// run metrics.
func NewDriver(loans LoanRepository, c Collaborators, opts Options, rec audit.Recorder, obs *observability.Observability, log logger.Logger) *Driver {
	if rec == nil {
		rec = audit.Nop{}
	}
	if opts.DefaultInterestRate == 0 {
		opts.DefaultInterestRate = 8.5
	}
	if opts.DefaultTenureYears == 0 {
		opts.DefaultTenureYears = 5
	}

	d := &Driver{
		loans:  loans,
		c:      c,
		opts:   opts,
		audit:  rec,
		obs:    obs,
		tracer: obs.Tracer(tracerName),
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
	d.steps = d.buildSteps()
	return d
}

// Run takes a submitted loan to emi_calculated, or to rejected with a *StepError. The loan
// is updated in place and returned in both cases. Once started, the run ignores cancellation
// of ctx; only the per-step timeout can stop it.
func (d *Driver) Run(ctx context.Context, loan *models.LoanApplication) (*models.LoanApplication, error) {
	if loan.Status != models.StatusSubmitted {
		return loan, fmt.Errorf("%w: loan %s is %s", ErrLoanNotSubmitted, loan.ID, loan.Status)
	}
	ctx = context.WithoutCancel(ctx)

	ctx, span := d.tracer.Start(ctx, "loan.workflow", trace.WithAttributes(
		attribute.String("loan.id", loan.ID),
	))
	defer span.End()

	started := time.Now()
	log := logger.ForLoan(d.logger, loan.ID, "")
	log.Info("loan workflow started", nil)

	data := &models.WorkflowData{Steps: []string{}}
	for _, st := range d.steps {
		if err := d.runStep(ctx, loan, data, st); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			d.finish(ctx, "rejected", started)
			log.Warn("loan workflow rejected", map[string]interface{}{
				logger.FieldStep: st.name,
				"error":          err.Error(),
			})
			return loan, err
		}
	}

	d.finish(ctx, "completed", started)
	log.Info("loan workflow completed", map[string]interface{}{
		logger.FieldStatus: string(loan.Status),
		"durationMs":       time.Since(started).Milliseconds(),
	})
	return loan, nil
}

func (d *Driver) runStep(ctx context.Context, loan *models.LoanApplication, data *models.WorkflowData, st step) error {
	ctx, span := d.tracer.Start(ctx, "loan.step."+st.name)
	defer span.End()

	started := time.Now()
	defer func() {
		metrics.LoanWorkflowStepDuration.WithLabelValues(st.name).Observe(time.Since(started).Seconds())
	}()

	if st.inProgress != "" {
		if err := d.checkpoint(ctx, loan, st.inProgress); err != nil {
			return d.reject(ctx, loan, data, st, err)
		}
	}

	before := snapshotDerived(loan)
	stepCtx, cancel := d.stepContext(ctx)
	err := st.run(stepCtx, loan, data)
	cancel()
	if err != nil {
		span.RecordError(err)
		before.restore(loan)
		return d.reject(ctx, loan, data, st, err)
	}

	data.Steps = append(data.Steps, st.doneName)
	loan.WorkflowData = data
	loan.CurrentStep = st.next
	if err := d.checkpoint(ctx, loan, st.completed); err != nil {
		data.Steps = data.Steps[:len(data.Steps)-1]
		before.restore(loan)
		return d.reject(ctx, loan, data, st, err)
	}
	return nil
}

// derived holds the loan fields a step may write, so a failed step leaves none behind.
type derived struct {
	aiScore  *float64
	aiResult *models.EligibilityResult
	subsidy  *float64
	emi      *float64
}

func snapshotDerived(loan *models.LoanApplication) derived {
	return derived{
		aiScore:  loan.AIEligibilityScore,
		aiResult: loan.AIEligibilityResult,
		subsidy:  loan.SubsidyAmount,
		emi:      loan.EMIAmount,
	}
}

func (s derived) restore(loan *models.LoanApplication) {
	loan.AIEligibilityScore = s.aiScore
	loan.AIEligibilityResult = s.aiResult
	loan.SubsidyAmount = s.subsidy
	loan.EMIAmount = s.emi
}

func (d *Driver) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.opts.StepTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.opts.StepTimeout)
}

// checkpoint moves the loan to next, persists it and emits an audit event.
func (d *Driver) checkpoint(ctx context.Context, loan *models.LoanApplication, next models.LoanStatus) error {
	from := loan.Status
	if err := loan.TransitionTo(next); err != nil {
		return err
	}
	if err := d.loans.SaveProgress(ctx, loan); err != nil {
		loan.Status = from
		return fmt.Errorf("persist %s: %w", next, err)
	}
	d.audit.Record(ctx, audit.StatusChanged(loan, from))
	return nil
}

// reject records the failure on the loan and returns the step error. The rejection is
// persisted even when the caller's context is already done.
func (d *Driver) reject(ctx context.Context, loan *models.LoanApplication, data *models.WorkflowData, st step, cause error) error {
	metrics.LoanWorkflowStepFailures.WithLabelValues(st.name).Inc()
	stepErr := &StepError{Step: st.name, Cause: cause}

	from := loan.Status
	loan.CurrentStep = st.name
	loan.WorkflowData = models.FailedWorkflowData(cause, data.Steps)
	if err := loan.TransitionTo(models.StatusRejected); err != nil {
		d.logger.Error("cannot reject loan", map[string]interface{}{
			logger.FieldLoanID: loan.ID,
			logger.FieldStatus: string(from),
			"error":            err.Error(),
		})
		return stepErr
	}

	persistCtx := context.WithoutCancel(ctx)
	if err := d.loans.SaveProgress(persistCtx, loan); err != nil {
		d.logger.Error("failed to persist rejection", map[string]interface{}{
			logger.FieldLoanID: loan.ID,
			logger.FieldStep:   st.name,
			"error":            err.Error(),
		})
		return stepErr
	}
	d.audit.Record(persistCtx, audit.StatusChanged(loan, from))
	return stepErr
}

func (d *Driver) finish(ctx context.Context, outcome string, started time.Time) {
	metrics.LoanWorkflowRuns.WithLabelValues(outcome).Inc()
	d.obs.RecordWorkflowRun(ctx, outcome, time.Since(started))
}
