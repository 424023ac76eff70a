package models

import (
	"encoding/json"
	"time"
)

// Workflow stage labels stored in current_step.
const (
	StepKYC           = "kyc"
	StepCIBIL         = "cibil"
	StepAIEligibility = "ai_eligibility"
	StepSubsidy       = "subsidy"
	StepEMI           = "emi"
	StepReview        = "review"
)

type SystemType string

const (
	SystemTypeResidential SystemType = "residential"
	SystemTypeCommercial  SystemType = "commercial"
)

// LoanApplication is the subject of the origination workflow.
type LoanApplication struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	AnnualIncome     float64    `json:"annual_income"`
	ExistingLoans    float64    `json:"existing_loans"`
	LoanAmount       float64    `json:"loan_amount"`
	LoanTenureYears  int        `json:"loan_tenure_years,omitempty"`
	InterestRate     *float64   `json:"interest_rate,omitempty"`
	SystemCapacityKW float64    `json:"system_capacity_kw"`
	RoofAreaSqft     float64    `json:"roof_area_sqft,omitempty"`
	State            string     `json:"state"`
	SystemType       SystemType `json:"system_type"`
	PANNumber        string     `json:"pan_number,omitempty"`

	Status       LoanStatus    `json:"status"`
	CurrentStep  string        `json:"current_step,omitempty"`
	WorkflowData *WorkflowData `json:"workflow_data,omitempty"`

	AIEligibilityScore  *float64           `json:"ai_eligibility_score,omitempty"`
	AIEligibilityResult *EligibilityResult `json:"ai_eligibility_result,omitempty"`
	SubsidyAmount       *float64           `json:"subsidy_amount,omitempty"`
	EMIAmount           *float64           `json:"emi_amount,omitempty"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TransitionTo moves the loan to next, failing on an illegal transition.
func (l *LoanApplication) TransitionTo(next LoanStatus) error {
	if err := ValidateTransition(l.Status, next); err != nil {
		return err
	}
	l.Status = next
	return nil
}

// EffectiveSystemType defaults an unset system type to residential.
func (l *LoanApplication) EffectiveSystemType() SystemType {
	if l.SystemType == "" {
		return SystemTypeResidential
	}
	return l.SystemType
}

// LoanPatch carries the declared attributes a borrower may edit while the loan is a draft.
type LoanPatch struct {
	AnnualIncome     *float64    `json:"annual_income,omitempty"`
	ExistingLoans    *float64    `json:"existing_loans,omitempty"`
	LoanAmount       *float64    `json:"loan_amount,omitempty"`
	LoanTenureYears  *int        `json:"loan_tenure_years,omitempty"`
	InterestRate     *float64    `json:"interest_rate,omitempty"`
	SystemCapacityKW *float64    `json:"system_capacity_kw,omitempty"`
	RoofAreaSqft     *float64    `json:"roof_area_sqft,omitempty"`
	State            *string     `json:"state,omitempty"`
	SystemType       *SystemType `json:"system_type,omitempty"`
	PANNumber        *string     `json:"pan_number,omitempty"`
}

// Apply copies the set fields onto loan.
func (p LoanPatch) Apply(loan *LoanApplication) {
	if p.AnnualIncome != nil {
		loan.AnnualIncome = *p.AnnualIncome
	}
	if p.ExistingLoans != nil {
		loan.ExistingLoans = *p.ExistingLoans
	}
	if p.LoanAmount != nil {
		loan.LoanAmount = *p.LoanAmount
	}
	if p.LoanTenureYears != nil {
		loan.LoanTenureYears = *p.LoanTenureYears
	}
	if p.InterestRate != nil {
		rate := *p.InterestRate
		loan.InterestRate = &rate
	}
	if p.SystemCapacityKW != nil {
		loan.SystemCapacityKW = *p.SystemCapacityKW
	}
	if p.RoofAreaSqft != nil {
		loan.RoofAreaSqft = *p.RoofAreaSqft
	}
	if p.State != nil {
		loan.State = *p.State
	}
	if p.SystemType != nil {
		loan.SystemType = *p.SystemType
	}
	if p.PANNumber != nil {
		loan.PANNumber = *p.PANNumber
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p LoanPatch) IsEmpty() bool {
	return p == LoanPatch{}
}

// WorkflowData is the per-run record of completed steps and collaborator results.
// A failed run replaces it with Error and CompletedSteps only.
type WorkflowData struct {
	Steps         []string           `json:"steps,omitempty"`
	KYCResult     *KYCSummary        `json:"kyc_result,omitempty"`
	CIBILResult   *CreditCheck       `json:"cibil_result,omitempty"`
	AIResult      *EligibilityResult `json:"ai_result,omitempty"`
	SubsidyResult *SubsidyResult     `json:"subsidy_result,omitempty"`
	EMIResult     *EMIResult         `json:"emi_result,omitempty"`

	Error          string   `json:"error,omitempty"`
	CompletedSteps []string `json:"completed_steps,omitempty"`
}

// FailedWorkflowData builds the failure record for a run that stopped after completed.
func FailedWorkflowData(err error, completed []string) *WorkflowData {
	steps := make([]string, len(completed))
	copy(steps, completed)
	return &WorkflowData{Error: err.Error(), CompletedSteps: steps}
}

// Failed reports whether this record describes a failed run.
func (w *WorkflowData) Failed() bool {
	return w != nil && w.Error != ""
}

// MarshalJSON always emits completed_steps for a failed run, even when empty.
func (w WorkflowData) MarshalJSON() ([]byte, error) {
	if w.Error != "" {
		steps := w.CompletedSteps
		if steps == nil {
			steps = []string{}
		}
		return json.Marshal(struct {
			Error          string   `json:"error"`
			CompletedSteps []string `json:"completed_steps"`
		}{w.Error, steps})
	}
	type plain WorkflowData
	return json.Marshal(plain(w))
}
