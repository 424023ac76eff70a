package workflow

import (
	"context"
	"time"

	"solar-loan-workers/internal/models"
)

type KYCChecker interface {
	RunChecks(ctx context.Context, userID, loanID string) (*models.KYCSummary, error)
}

// CreditChecker runs a fresh bureau check.
type CreditChecker interface {
	Fetch(ctx context.Context, userID, loanID, pan string) (*models.CreditCheck, error)
}

// CreditCheckFinder returns a reusable completed check, or nil.
type CreditCheckFinder interface {
	FindValid(ctx context.Context, userID string, now time.Time) (*models.CreditCheck, error)
}

type EligibilityScorer interface {
	Score(ctx context.Context, loanID string, features models.EligibilityFeatures) (*models.EligibilityResult, error)
}

type SubsidyCalculator interface {
	Compute(capacityKW float64, state string, systemType models.SystemType) (*models.SubsidyResult, error)
}

type EMICalculator interface {
	Compute(principal, annualRate float64, tenureYears int) (*models.EMIResult, error)
}

// LoanRepository is the persistence the workflow needs.
type LoanRepository interface {
	Get(ctx context.Context, id string) (*models.LoanApplication, error)
	MarkSubmitted(ctx context.Context, loan *models.LoanApplication) error
	SaveProgress(ctx context.Context, loan *models.LoanApplication) error
}

// Collaborators are the step implementations injected into a Driver.
type Collaborators struct {
	KYC          KYCChecker
	Credit       CreditChecker
	CreditLookup CreditCheckFinder
	Eligibility  EligibilityScorer
	Subsidy      SubsidyCalculator
	EMI          EMICalculator
}

// Options tune a Driver.
type Options struct {
	StepTimeout         time.Duration
	DefaultInterestRate float64
	DefaultTenureYears  int
}
