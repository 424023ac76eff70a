package createloanapplication

import "solar-loan-workers/internal/models"

// Input is validated against validation.CreateLoanSchema before use.
type Input struct {
	UserID           string            `json:"userId"`
	AnnualIncome     float64           `json:"annualIncome"`
	ExistingLoans    float64           `json:"existingLoans,omitempty"`
	ExistingEMI      float64           `json:"existingEmi,omitempty"`
	LoanAmount       float64           `json:"loanAmount"`
	LoanTenureYears  int               `json:"loanTenureYears,omitempty"`
	InterestRate     *float64          `json:"interestRate,omitempty"`
	SystemCapacityKW float64           `json:"systemCapacityKw"`
	RoofAreaSqft     float64           `json:"roofAreaSqft,omitempty"`
	State            string            `json:"state"`
	SystemType       models.SystemType `json:"systemType,omitempty"`
	PANNumber        string            `json:"panNumber,omitempty"`
}

type Output struct {
	LoanID        string            `json:"loanId"`
	Status        models.LoanStatus `json:"status"`
	Prequalified  bool              `json:"prequalified"`
	MaxLoanAmount float64           `json:"maxLoanAmount"`
	PrequalReason string            `json:"prequalReason"`
}
