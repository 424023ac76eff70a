package calculateemi

import "solar-loan-workers/internal/models"

type Input struct {
	LoanAmount      float64  `json:"loanAmount"`
	InterestRate    *float64 `json:"interestRate,omitempty"`
	LoanTenureYears int      `json:"loanTenureYears,omitempty"`
}

type Output struct {
	EMI *models.EMIResult `json:"emi"`
}
