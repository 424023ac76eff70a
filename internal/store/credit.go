package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"solar-loan-workers/internal/models"

	"github.com/google/uuid"
)

const creditColumns = `id, user_id, loan_application_id, pan_number, status, credit_score,
	credit_rating, report_data, job_id, error_message, completed_at, expires_at, created_at`

// CreditStore reads and writes credit_checks.
type CreditStore struct {
	db *sql.DB
}

func NewCreditStore(db *sql.DB) *CreditStore {
	return &CreditStore{db: db}
}

// Insert stores a new check, assigning an ID when unset.
func (s *CreditStore) Insert(ctx context.Context, c *models.CreditCheck) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	report, err := encodeReport(c.ReportData)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO credit_checks (`+creditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID, c.UserID, nullString(c.LoanApplicationID), c.PANNumber, string(c.Status),
		nullInt(c.CreditScore), c.CreditRating, jsonParam(report), c.JobID, c.ErrorMessage,
		nullTime(c.CompletedAt), nullTime(c.ExpiresAt), c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert credit check: %w", err)
	}
	return nil
}

// Update writes the mutable lifecycle columns.
func (s *CreditStore) Update(ctx context.Context, c *models.CreditCheck) error {
	report, err := encodeReport(c.ReportData)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE credit_checks SET
			status = $2, credit_score = $3, credit_rating = $4, report_data = $5, job_id = $6,
			error_message = $7, completed_at = $8, expires_at = $9
		WHERE id = $1`,
		c.ID, string(c.Status), nullInt(c.CreditScore), c.CreditRating, jsonParam(report), c.JobID,
		c.ErrorMessage, nullTime(c.CompletedAt), nullTime(c.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("update credit check %s: %w", c.ID, err)
	}
	return nil
}

// FindValid returns the latest completed check for the user that expires after now,
// or nil when there is none.
func (s *CreditStore) FindValid(ctx context.Context, userID string, now time.Time) (*models.CreditCheck, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+creditColumns+`
		FROM credit_checks
		WHERE user_id = $1 AND status = $2 AND expires_at > $3
		ORDER BY created_at DESC
		LIMIT 1`, userID, string(models.CreditCheckCompleted), now)

	check, err := scanCreditCheck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find valid credit check: %w", err)
	}
	return check, nil
}

func scanCreditCheck(row rowScanner) (*models.CreditCheck, error) {
	var (
		c                      models.CreditCheck
		loanID                 sql.NullString
		status                 string
		score                  sql.NullInt64
		report                 []byte
		completedAt, expiresAt sql.NullTime
	)
	err := row.Scan(&c.ID, &c.UserID, &loanID, &c.PANNumber, &status, &score, &c.CreditRating,
		&report, &c.JobID, &c.ErrorMessage, &completedAt, &expiresAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	c.LoanApplicationID = loanID.String
	c.Status = models.CreditCheckStatus(status)
	if score.Valid {
		v := int(score.Int64)
		c.CreditScore = &v
	}
	c.CompletedAt = timePtr(completedAt)
	c.ExpiresAt = timePtr(expiresAt)
	if len(report) > 0 {
		if err := json.Unmarshal(report, &c.ReportData); err != nil {
			return nil, fmt.Errorf("decode report_data: %w", err)
		}
	}
	return &c, nil
}

func encodeReport(data map[string]interface{}) ([]byte, error) {
	if data == nil {
		return nil, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode report_data: %w", err)
	}
	return raw, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
