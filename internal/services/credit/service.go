package credit

import (
	"context"
	"fmt"
	"time"

	"solar-loan-workers/internal/common/logger"
	"solar-loan-workers/internal/common/metrics"
	"solar-loan-workers/internal/models"
)

// CheckStore persists credit check records.
type CheckStore interface {
	Insert(ctx context.Context, c *models.CreditCheck) error
	Update(ctx context.Context, c *models.CreditCheck) error
}

// Service runs a fresh bureau check and records its lifecycle.
type Service struct {
	store    CheckStore
	bureau   Bureau
	validity time.Duration
	logger   logger.Logger
	now      func() time.Time
}

func NewService(store CheckStore, bureau Bureau, validityDays int, log logger.Logger) *Service {
	return &Service{
		store:    store,
		bureau:   bureau,
		validity: time.Duration(validityDays) * 24 * time.Hour,
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Fetch records an in_progress check, calls the bureau and marks the check completed or
// failed. A bureau failure is persisted on the record and returned.
func (s *Service) Fetch(ctx context.Context, userID, loanID, pan string) (*models.CreditCheck, error) {
	check := &models.CreditCheck{
		UserID:            userID,
		LoanApplicationID: loanID,
		PANNumber:         pan,
		Status:            models.CreditCheckInProgress,
		CreatedAt:         s.now(),
	}
	if err := s.store.Insert(ctx, check); err != nil {
		return nil, fmt.Errorf("record credit check: %w", err)
	}
	metrics.CreditCheckLookups.WithLabelValues("bureau").Inc()

	report, err := s.bureau.FetchReport(ctx, pan)
	if err != nil {
		check.Status = models.CreditCheckFailed
		check.ErrorMessage = err.Error()
		// The step context may already be done; the failure must still be recorded.
		if uerr := s.store.Update(context.WithoutCancel(ctx), check); uerr != nil {
			s.logger.Error("failed to record credit check failure", map[string]interface{}{
				"creditCheckId": check.ID,
				"error":         uerr.Error(),
			})
		}
		s.logger.Warn("credit bureau fetch failed", map[string]interface{}{
			logger.FieldUserID: userID,
			logger.FieldLoanID: loanID,
			"error":            err.Error(),
		})
		return nil, fmt.Errorf("credit bureau: %w", err)
	}

	completed := s.now()
	expires := completed.Add(s.validity)
	score := report.CreditScore

	check.Status = models.CreditCheckCompleted
	check.CreditScore = &score
	check.CreditRating = report.CreditRating
	check.ReportData = report.ReportData()
	check.CompletedAt = &completed
	check.ExpiresAt = &expires
	check.JobID = "CIBIL_" + check.ID

	if err := s.store.Update(ctx, check); err != nil {
		return nil, fmt.Errorf("complete credit check %s: %w", check.ID, err)
	}

	s.logger.Info("credit check completed", map[string]interface{}{
		logger.FieldUserID: userID,
		logger.FieldLoanID: loanID,
		"creditCheckId":    check.ID,
		"creditScore":      score,
	})
	return check, nil
}
