package models

import "time"

// EligibilityFeatures is the model input, in the order the model expects.
type EligibilityFeatures struct {
	AnnualIncome     float64 `json:"annual_income"`
	LoanAmount       float64 `json:"loan_amount"`
	ExistingLoans    float64 `json:"existing_loans"`
	LoanTenureYears  int     `json:"loan_tenure_years"`
	SystemCapacityKW float64 `json:"system_capacity_kw"`
}

// Vector returns the features as a model row.
func (f EligibilityFeatures) Vector() []float64 {
	return []float64{
		f.AnnualIncome,
		f.LoanAmount,
		f.ExistingLoans,
		float64(f.LoanTenureYears),
		f.SystemCapacityKW,
	}
}

// FeaturesFromLoan derives model features, defaulting an unset tenure.
func FeaturesFromLoan(loan *LoanApplication, defaultTenure int) EligibilityFeatures {
	tenure := loan.LoanTenureYears
	if tenure == 0 {
		tenure = defaultTenure
	}
	return EligibilityFeatures{
		AnnualIncome:     loan.AnnualIncome,
		LoanAmount:       loan.LoanAmount,
		ExistingLoans:    loan.ExistingLoans,
		LoanTenureYears:  tenure,
		SystemCapacityKW: loan.SystemCapacityKW,
	}
}

type EligibilityResult struct {
	EligibilityScore float64  `json:"eligibility_score"`
	IsEligible       bool     `json:"is_eligible"`
	Reasons          []string `json:"reasons"`
	Confidence       float64  `json:"confidence"`
	ModelVersion     string   `json:"model_version,omitempty"`
	PredictionID     string   `json:"prediction_id,omitempty"`
}

type SubsidyResult struct {
	SubsidyAmount    float64    `json:"subsidy_amount"`
	CentralSubsidy   float64    `json:"central_subsidy"`
	StateSubsidy     float64    `json:"state_subsidy"`
	SystemCapacityKW float64    `json:"system_capacity_kw"`
	State            string     `json:"state"`
	SystemType       SystemType `json:"system_type"`
}

type EMIResult struct {
	EMIAmount     float64 `json:"emi_amount"`
	TotalAmount   float64 `json:"total_amount"`
	TotalInterest float64 `json:"total_interest"`
	Principal     float64 `json:"principal"`
	InterestRate  float64 `json:"interest_rate"`
	TenureYears   int     `json:"tenure_years"`
	TenureMonths  int     `json:"tenure_months"`
}

type AnnualSavings struct {
	Year          int     `json:"year"`
	GenerationKWh float64 `json:"generation_kwh"`
	Savings       float64 `json:"savings"`
}

type ROIResult struct {
	TotalSavings       float64         `json:"total_savings"`
	NetSavings         float64         `json:"net_savings"`
	ROIPercentage      float64         `json:"roi_percentage"`
	PaybackPeriodYears int             `json:"payback_period_years"`
	NPV                float64         `json:"npv"`
	AnnualGenerationKW float64         `json:"annual_generation_kwh"`
	Yearly             []AnnualSavings `json:"yearly,omitempty"`
}

type PrequalResult struct {
	Prequalified  bool    `json:"prequalified"`
	MaxLoanAmount float64 `json:"max_loan_amount"`
	Reason        string  `json:"reason"`
}

const PredictionTypeEligibility = "eligibility"

// Prediction is one stored model invocation.
type Prediction struct {
	ID                string                 `json:"id"`
	LoanApplicationID string                 `json:"loan_application_id"`
	PredictionType    string                 `json:"prediction_type"`
	ModelName         string                 `json:"model_name"`
	ModelVersion      string                 `json:"model_version"`
	InputFeatures     EligibilityFeatures    `json:"input_features"`
	Result            map[string]interface{} `json:"prediction_result"`
	ConfidenceScore   float64                `json:"confidence_score"`
	CreatedAt         time.Time              `json:"created_at"`
}
