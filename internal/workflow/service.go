package workflow

import (
	"context"
	"fmt"

	"solar-loan-workers/internal/audit"
	"solar-loan-workers/internal/common/logger"
	"solar-loan-workers/internal/common/metrics"
	"solar-loan-workers/internal/models"
)

// Service is the submission entry point.
type Service struct {
	loans  LoanRepository
	driver *Driver
	audit  audit.Recorder
	logger logger.Logger
}

func NewService(loans LoanRepository, driver *Driver, rec audit.Recorder, log logger.Logger) *Service {
	if rec == nil {
		rec = audit.Nop{}
	}
	return &Service{loans: loans, driver: driver, audit: rec, logger: log}
}

// Submit gates a draft loan into submitted and runs the workflow synchronously. The loan
// is returned whether the run completed or was rejected; a rejected run also returns the
// driver's *StepError. A loan that is not a draft is refused before any side effect.
func (s *Service) Submit(ctx context.Context, loanID string) (*models.LoanApplication, error) {
	loan, err := s.loans.Get(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if loan.Status != models.StatusDraft {
		metrics.LoanWorkflowRuns.WithLabelValues("precondition_failed").Inc()
		return loan, fmt.Errorf("%w: loan %s is %s", ErrLoanNotDraft, loan.ID, loan.Status)
	}
	if err := models.ValidateTransition(loan.Status, models.StatusSubmitted); err != nil {
		return loan, err
	}

	// Conditional update; a concurrent submitter loses here with ErrLoanNotDraft.
	if err := s.loans.MarkSubmitted(ctx, loan); err != nil {
		metrics.LoanWorkflowRuns.WithLabelValues("precondition_failed").Inc()
		return loan, err
	}
	s.audit.Record(ctx, audit.StatusChanged(loan, models.StatusDraft))

	s.logger.Info("loan submitted", map[string]interface{}{
		logger.FieldLoanID: loan.ID,
		logger.FieldUserID: loan.UserID,
	})

	return s.driver.Run(ctx, loan)
}
