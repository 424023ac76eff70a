package eligibility

import (
	"solar-loan-workers/internal/models"

	"github.com/shopspring/decimal"
)

var (
	maxDebtShare     = decimal.RequireFromString("0.4")
	incomeMultiplier = decimal.NewFromInt(5)
	emiHorizonMonths = decimal.NewFromInt(60)
)

// Prequalify caps the loan at 40% of income over five years less five years of existing EMIs.
func Prequalify(annualIncome, loanAmount, existingEMI float64) models.PrequalResult {
	limit := decimal.NewFromFloat(annualIncome).Mul(maxDebtShare).Mul(incomeMultiplier).
		Sub(decimal.NewFromFloat(existingEMI).Mul(emiHorizonMonths))
	if limit.IsNegative() {
		limit = decimal.Zero
	}

	result := models.PrequalResult{
		MaxLoanAmount: limit.Round(2).InexactFloat64(),
		Prequalified:  limit.GreaterThanOrEqual(decimal.NewFromFloat(loanAmount)),
	}
	if result.Prequalified {
		result.Reason = "Meets income requirements"
	} else {
		result.Reason = "Requested amount exceeds maximum eligible amount"
	}
	return result
}
