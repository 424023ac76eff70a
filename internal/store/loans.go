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
	"github.com/lib/pq"
)

const loanColumns = `id, user_id, annual_income, existing_loans, loan_amount, loan_tenure_years,
	interest_rate, system_capacity_kw, roof_area_sqft, state, system_type, pan_number,
	status, current_step, workflow_data, ai_eligibility_score, ai_eligibility_result,
	subsidy_amount, emi_amount, submitted_at, created_at, updated_at`

// LoanStore reads and writes loan_applications.
type LoanStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewLoanStore(db *sql.DB) *LoanStore {
	return &LoanStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the loan or models.ErrLoanNotFound.
func (s *LoanStore) Get(ctx context.Context, id string) (*models.LoanApplication, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+loanColumns+` FROM loan_applications WHERE id = $1`, id)
	loan, err := scanLoan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrLoanNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get loan %s: %w", id, err)
	}
	return loan, nil
}

// Create inserts a draft. ID and timestamps are filled in when unset.
func (s *LoanStore) Create(ctx context.Context, loan *models.LoanApplication) error {
	if loan.ID == "" {
		loan.ID = uuid.New().String()
	}
	if loan.Status == "" {
		loan.Status = models.StatusDraft
	}
	loan.SystemType = loan.EffectiveSystemType()
	now := s.now()
	loan.CreatedAt, loan.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO loan_applications (
			id, user_id, annual_income, existing_loans, loan_amount, loan_tenure_years,
			interest_rate, system_capacity_kw, roof_area_sqft, state, system_type, pan_number,
			status, current_step, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)`,
		loan.ID, loan.UserID, loan.AnnualIncome, loan.ExistingLoans, loan.LoanAmount,
		loan.LoanTenureYears, nullFloat(loan.InterestRate), loan.SystemCapacityKW,
		loan.RoofAreaSqft, loan.State, string(loan.SystemType), loan.PANNumber,
		string(loan.Status), loan.CurrentStep, now,
	)
	if err != nil {
		return fmt.Errorf("insert loan: %w", err)
	}
	return nil
}

// UpdateDraft writes the declared attributes, guarded by status = 'draft'.
func (s *LoanStore) UpdateDraft(ctx context.Context, loan *models.LoanApplication) error {
	loan.UpdatedAt = s.now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE loan_applications SET
			annual_income = $2, existing_loans = $3, loan_amount = $4, loan_tenure_years = $5,
			interest_rate = $6, system_capacity_kw = $7, roof_area_sqft = $8, state = $9,
			system_type = $10, pan_number = $11, updated_at = $12
		WHERE id = $1 AND status = 'draft'`,
		loan.ID, loan.AnnualIncome, loan.ExistingLoans, loan.LoanAmount, loan.LoanTenureYears,
		nullFloat(loan.InterestRate), loan.SystemCapacityKW, loan.RoofAreaSqft, loan.State,
		string(loan.EffectiveSystemType()), loan.PANNumber, loan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update draft %s: %w", loan.ID, err)
	}
	return expectOneRow(res, loan.ID)
}

// MarkSubmitted performs the one-shot draft -> submitted transition. A loan that is no
// longer a draft yields models.ErrLoanNotDraft.
func (s *LoanStore) MarkSubmitted(ctx context.Context, loan *models.LoanApplication) error {
	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE loan_applications
		SET status = $2, current_step = $3, submitted_at = $4, updated_at = $4
		WHERE id = $1 AND status = 'draft'`,
		loan.ID, string(models.StatusSubmitted), models.StepKYC, now,
	)
	if err != nil {
		return fmt.Errorf("submit loan %s: %w", loan.ID, err)
	}
	if err := expectOneRow(res, loan.ID); err != nil {
		return err
	}

	loan.Status = models.StatusSubmitted
	loan.CurrentStep = models.StepKYC
	loan.SubmittedAt = &now
	loan.UpdatedAt = now
	return nil
}

// SaveProgress checkpoints the workflow columns of a submitted loan.
func (s *LoanStore) SaveProgress(ctx context.Context, loan *models.LoanApplication) error {
	var workflowData, aiResult []byte
	var err error
	if loan.WorkflowData != nil {
		if workflowData, err = json.Marshal(loan.WorkflowData); err != nil {
			return fmt.Errorf("encode workflow_data: %w", err)
		}
	}
	if loan.AIEligibilityResult != nil {
		if aiResult, err = json.Marshal(loan.AIEligibilityResult); err != nil {
			return fmt.Errorf("encode ai_eligibility_result: %w", err)
		}
	}

	loan.UpdatedAt = s.now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE loan_applications SET
			status = $2, current_step = $3, workflow_data = $4, ai_eligibility_score = $5,
			ai_eligibility_result = $6, subsidy_amount = $7, emi_amount = $8, updated_at = $9
		WHERE id = $1`,
		loan.ID, string(loan.Status), loan.CurrentStep, jsonParam(workflowData),
		nullFloat(loan.AIEligibilityScore), jsonParam(aiResult), nullFloat(loan.SubsidyAmount),
		nullFloat(loan.EMIAmount), loan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save progress %s: %w", loan.ID, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("%w: %s", models.ErrLoanNotFound, loan.ID)
	}
	return nil
}

// ListStuck returns loans left mid-run with no update since before. Loans waiting at
// emi_calculated are not stuck. Runs are never resumed automatically; this is for operators.
func (s *LoanStore) ListStuck(ctx context.Context, before time.Time) ([]*models.LoanApplication, error) {
	var statuses []string
	for _, st := range models.StatusOrder {
		if st.Running() {
			statuses = append(statuses, string(st))
		}
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+loanColumns+`
		FROM loan_applications
		WHERE status = ANY($1) AND updated_at < $2
		ORDER BY updated_at`, pq.Array(statuses), before)
	if err != nil {
		return nil, fmt.Errorf("list stuck loans: %w", err)
	}
	return collectLoans(rows)
}

func expectOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", models.ErrLoanNotDraft, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLoan(row rowScanner) (*models.LoanApplication, error) {
	var (
		loan                   models.LoanApplication
		status, systemType     string
		interestRate, aiScore  sql.NullFloat64
		subsidy, emi           sql.NullFloat64
		workflowData, aiResult []byte
		submittedAt            sql.NullTime
	)
	err := row.Scan(
		&loan.ID, &loan.UserID, &loan.AnnualIncome, &loan.ExistingLoans, &loan.LoanAmount,
		&loan.LoanTenureYears, &interestRate, &loan.SystemCapacityKW, &loan.RoofAreaSqft,
		&loan.State, &systemType, &loan.PANNumber, &status, &loan.CurrentStep, &workflowData,
		&aiScore, &aiResult, &subsidy, &emi, &submittedAt, &loan.CreatedAt, &loan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	loan.Status = models.LoanStatus(status)
	loan.SystemType = models.SystemType(systemType)
	loan.InterestRate = floatPtr(interestRate)
	loan.AIEligibilityScore = floatPtr(aiScore)
	loan.SubsidyAmount = floatPtr(subsidy)
	loan.EMIAmount = floatPtr(emi)
	loan.SubmittedAt = timePtr(submittedAt)

	if len(workflowData) > 0 {
		loan.WorkflowData = &models.WorkflowData{}
		if err := json.Unmarshal(workflowData, loan.WorkflowData); err != nil {
			return nil, fmt.Errorf("decode workflow_data: %w", err)
		}
	}
	if len(aiResult) > 0 {
		loan.AIEligibilityResult = &models.EligibilityResult{}
		if err := json.Unmarshal(aiResult, loan.AIEligibilityResult); err != nil {
			return nil, fmt.Errorf("decode ai_eligibility_result: %w", err)
		}
	}
	return &loan, nil
}

func collectLoans(rows *sql.Rows) ([]*models.LoanApplication, error) {
	defer rows.Close()

	var loans []*models.LoanApplication
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}
