package store

import (
	"context"
	"database/sql"
	"fmt"

	"solar-loan-workers/internal/models"
)

// KYCStore reads kyc_records. Records are written by the verification integrations.
type KYCStore struct {
	db *sql.DB
}

func NewKYCStore(db *sql.DB) *KYCStore {
	return &KYCStore{db: db}
}

// ListByLoan returns the user's KYC records attached to a loan, oldest first.
func (s *KYCStore) ListByLoan(ctx context.Context, userID, loanID string) ([]models.KYCRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, loan_application_id, kyc_type, status, verified_at, created_at
		FROM kyc_records
		WHERE user_id = $1 AND loan_application_id = $2
		ORDER BY created_at`, userID, loanID)
	if err != nil {
		return nil, fmt.Errorf("list kyc records: %w", err)
	}
	defer rows.Close()

	var records []models.KYCRecord
	for rows.Next() {
		var (
			r          models.KYCRecord
			loanRef    sql.NullString
			status     string
			verifiedAt sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.UserID, &loanRef, &r.KYCType, &status, &verifiedAt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan kyc record: %w", err)
		}
		r.LoanApplicationID = loanRef.String
		r.Status = models.KYCStatus(status)
		r.VerifiedAt = timePtr(verifiedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}
