// Package calculation holds the EMI, subsidy and ROI calculators.
package calculation

import (
	"errors"
	"fmt"
	"math"

	"solar-loan-workers/internal/models"

	"github.com/shopspring/decimal"
)

var ErrInvalidInput = errors.New("INVALID_CALCULATION_INPUT")

// EMICalculator computes equated monthly instalments.
type EMICalculator struct{}

func NewEMICalculator() *EMICalculator {
	return &EMICalculator{}
}

// Compute applies emi = P*r*(1+r)^n / ((1+r)^n - 1) with r the monthly rate, or P/n at 0%.
// EMI, total and interest are rounded to 2 places.
func (c *EMICalculator) Compute(principal, annualRate float64, tenureYears int) (*models.EMIResult, error) {
	if principal <= 0 {
		return nil, fmt.Errorf("%w: principal must be positive", ErrInvalidInput)
	}
	if annualRate < 0 {
		return nil, fmt.Errorf("%w: interest rate must not be negative", ErrInvalidInput)
	}
	if tenureYears <= 0 {
		return nil, fmt.Errorf("%w: tenure must be at least one year", ErrInvalidInput)
	}

	monthlyRate := annualRate / 100 / 12
	months := tenureYears * 12

	var emi float64
	if monthlyRate == 0 {
		emi = principal / float64(months)
	} else {
		growth := math.Pow(1+monthlyRate, float64(months))
		emi = principal * monthlyRate * growth / (growth - 1)
	}

	total := emi * float64(months)
	interest := total - principal

	return &models.EMIResult{
		EMIAmount:     round2(emi),
		TotalAmount:   round2(total),
		TotalInterest: round2(interest),
		Principal:     principal,
		InterestRate:  annualRate,
		TenureYears:   tenureYears,
		TenureMonths:  months,
	}, nil
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
