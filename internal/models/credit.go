package models

import "time"

type CreditCheckStatus string

const (
	CreditCheckPending    CreditCheckStatus = "pending"
	CreditCheckInProgress CreditCheckStatus = "in_progress"
	CreditCheckCompleted  CreditCheckStatus = "completed"
	CreditCheckFailed     CreditCheckStatus = "failed"
	CreditCheckExpired    CreditCheckStatus = "expired"
)

// CreditCheck is one credit bureau lookup for a user.
type CreditCheck struct {
	ID                string                 `json:"id"`
	UserID            string                 `json:"user_id"`
	LoanApplicationID string                 `json:"loan_application_id,omitempty"`
	PANNumber         string                 `json:"pan_number,omitempty"`
	Status            CreditCheckStatus      `json:"status"`
	CreditScore       *int                   `json:"credit_score,omitempty"`
	CreditRating      string                 `json:"credit_rating,omitempty"`
	ReportData        map[string]interface{} `json:"report_data,omitempty"`
	JobID             string                 `json:"job_id,omitempty"`
	ErrorMessage      string                 `json:"error_message,omitempty"`
	CompletedAt       *time.Time             `json:"completed_at,omitempty"`
	ExpiresAt         *time.Time             `json:"expires_at,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
}

// ReusableAt reports whether the check is completed and unexpired at now.
func (c *CreditCheck) ReusableAt(now time.Time) bool {
	return c != nil &&
		c.Status == CreditCheckCompleted &&
		c.ExpiresAt != nil &&
		c.ExpiresAt.After(now)
}

// CreditReport is what a bureau returns for a PAN.
type CreditReport struct {
	CreditScore    int                    `json:"credit_score"`
	CreditRating   string                 `json:"credit_rating"`
	TotalAccounts  int                    `json:"total_accounts"`
	ActiveAccounts int                    `json:"active_accounts"`
	OverdueAmount  float64                `json:"overdue_amount"`
	Raw            map[string]interface{} `json:"raw,omitempty"`
}

// ReportData flattens the report for storage on the credit check.
func (r *CreditReport) ReportData() map[string]interface{} {
	data := map[string]interface{}{
		"credit_score":    r.CreditScore,
		"credit_rating":   r.CreditRating,
		"total_accounts":  r.TotalAccounts,
		"active_accounts": r.ActiveAccounts,
		"overdue_amount":  r.OverdueAmount,
	}
	for k, v := range r.Raw {
		if _, exists := data[k]; !exists {
			data[k] = v
		}
	}
	return data
}
