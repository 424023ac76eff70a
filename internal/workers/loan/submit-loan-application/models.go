package submitloanapplication

import "solar-loan-workers/internal/models"

type Input struct {
	LoanID string `json:"loanId"`
}

// Output is returned for completed and rejected runs alike so the process can branch on
// status.
type Output struct {
	LoanID           string            `json:"loanId"`
	Status           models.LoanStatus `json:"status"`
	CurrentStep      string            `json:"currentStep"`
	EMIAmount        *float64          `json:"emiAmount,omitempty"`
	SubsidyAmount    *float64          `json:"subsidyAmount,omitempty"`
	EligibilityScore *float64          `json:"eligibilityScore,omitempty"`
	FailedStep       string            `json:"failedStep,omitempty"`
	Error            string            `json:"error,omitempty"`
	ErrorCode        string            `json:"errorCode,omitempty"`
}
