// Package kyc summarises identity verification for a loan.
package kyc

import (
	"context"
	"fmt"
	"net/url"

	httpclient "solar-loan-workers/internal/common/http"
	"solar-loan-workers/internal/common/logger"
	"solar-loan-workers/internal/models"
)

// RecordLister returns the KYC records attached to a loan.
type RecordLister interface {
	ListByLoan(ctx context.Context, userID, loanID string) ([]models.KYCRecord, error)
}

// Service builds the KYC summary from stored verification records.
type Service struct {
	records RecordLister
	logger  logger.Logger
}

func NewService(records RecordLister, log logger.Logger) *Service {
	return &Service{records: records, logger: log}
}

// RunChecks summarises the stored records. Unverified records are reported, not raised.
func (s *Service) RunChecks(ctx context.Context, userID, loanID string) (*models.KYCSummary, error) {
	records, err := s.records.ListByLoan(ctx, userID, loanID)
	if err != nil {
		return nil, fmt.Errorf("load kyc records: %w", err)
	}

	summary := Summarise(records)
	s.logger.Debug("kyc summary built", map[string]interface{}{
		logger.FieldLoanID: loanID,
		"totalChecks":      summary.TotalChecks,
		"verifiedCount":    summary.VerifiedCount,
	})
	return summary, nil
}

// Summarise counts records and verified records.
func Summarise(records []models.KYCRecord) *models.KYCSummary {
	summary := &models.KYCSummary{
		TotalChecks: len(records),
		Records:     make([]models.KYCCheck, 0, len(records)),
	}
	for _, r := range records {
		if r.Status == models.KYCVerified {
			summary.VerifiedCount++
		}
		summary.Records = append(summary.Records, models.KYCCheck{Type: r.KYCType, Status: r.Status})
	}
	return summary
}

// HTTPChecker asks the KYC provider for the loan's verification summary.
type HTTPChecker struct {
	client *httpclient.Client
}

func NewHTTPChecker(client *httpclient.Client) *HTTPChecker {
	return &HTTPChecker{client: client}
}

func (c *HTTPChecker) RunChecks(ctx context.Context, userID, loanID string) (*models.KYCSummary, error) {
	path := fmt.Sprintf("/kyc/users/%s/loans/%s/summary", url.PathEscape(userID), url.PathEscape(loanID))

	var summary models.KYCSummary
	if err := c.client.GetJSON(ctx, path, &summary); err != nil {
		return nil, fmt.Errorf("kyc provider: %w", err)
	}
	if summary.Records == nil {
		summary.Records = []models.KYCCheck{}
	}
	return &summary, nil
}
