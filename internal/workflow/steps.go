package workflow

import (
	"context"

	"solar-loan-workers/internal/common/logger"
	"solar-loan-workers/internal/models"
)

// step is one stage of the run. The driver owns status and persistence; run only calls the
// collaborator and, on success, records its result.
type step struct {
	name       string
	inProgress models.LoanStatus // empty: the step has no dedicated in-progress state
	completed  models.LoanStatus
	doneName   string
	next       string
	run        func(ctx context.Context, loan *models.LoanApplication, data *models.WorkflowData) error
}

func (d *Driver) buildSteps() []step {
	return []step{
		{
			name:       models.StepKYC,
			inProgress: models.StatusKYCInProgress,
			completed:  models.StatusKYCCompleted,
			doneName:   "kyc_completed",
			next:       models.StepCIBIL,
			run:        d.runKYC,
		},
		{
			name:       models.StepCIBIL,
			inProgress: models.StatusCIBILChecking,
			completed:  models.StatusCIBILCompleted,
			doneName:   "cibil_completed",
			next:       models.StepAIEligibility,
			run:        d.runCredit,
		},
		{
			name:       models.StepAIEligibility,
			inProgress: models.StatusAIEligibilityChecking,
			completed:  models.StatusAIEligibilityCompleted,
			doneName:   "ai_eligibility_completed",
			next:       models.StepSubsidy,
			run:        d.runEligibility,
		},
		{
			name:       models.StepSubsidy,
			inProgress: models.StatusSubsidyChecking,
			completed:  models.StatusSubsidyCompleted,
			doneName:   "subsidy_completed",
			next:       models.StepEMI,
			run:        d.runSubsidy,
		},
		{
			name:      models.StepEMI,
			completed: models.StatusEMICalculated,
			doneName:  "emi_calculated",
			next:      models.StepReview,
			run:       d.runEMI,
		},
	}
}

func (d *Driver) runKYC(ctx context.Context, loan *models.LoanApplication, data *models.WorkflowData) error {
	summary, err := d.c.KYC.RunChecks(ctx, loan.UserID, loan.ID)
	if err != nil {
		return err
	}
	data.KYCResult = summary
	return nil
}

// runCredit reuses an unexpired completed check before going to the bureau.
func (d *Driver) runCredit(ctx context.Context, loan *models.LoanApplication, data *models.WorkflowData) error {
	if d.c.CreditLookup != nil {
		cached, err := d.c.CreditLookup.FindValid(ctx, loan.UserID, d.now())
		if err != nil {
			return err
		}
		if cached != nil {
			d.logger.Info("reusing credit check", map[string]interface{}{
				logger.FieldLoanID: loan.ID,
				"creditCheckId":    cached.ID,
			})
			data.CIBILResult = cached
			return nil
		}
	}

	check, err := d.c.Credit.Fetch(ctx, loan.UserID, loan.ID, loan.PANNumber)
	if err != nil {
		return err
	}
	data.CIBILResult = check
	return nil
}

func (d *Driver) runEligibility(ctx context.Context, loan *models.LoanApplication, data *models.WorkflowData) error {
	features := models.FeaturesFromLoan(loan, d.opts.DefaultTenureYears)
	result, err := d.c.Eligibility.Score(ctx, loan.ID, features)
	if err != nil {
		return err
	}

	score := result.EligibilityScore
	data.AIResult = result
	loan.AIEligibilityScore = &score
	loan.AIEligibilityResult = result
	return nil
}

func (d *Driver) runSubsidy(ctx context.Context, loan *models.LoanApplication, data *models.WorkflowData) error {
	result, err := d.c.Subsidy.Compute(loan.SystemCapacityKW, loan.State, loan.EffectiveSystemType())
	if err != nil {
		return err
	}

	amount := result.SubsidyAmount
	data.SubsidyResult = result
	loan.SubsidyAmount = &amount
	return nil
}

// runEMI uses the loan's rate when it is set and non-zero, and the configured defaults otherwise.
func (d *Driver) runEMI(ctx context.Context, loan *models.LoanApplication, data *models.WorkflowData) error {
	rate := d.opts.DefaultInterestRate
	if loan.InterestRate != nil && *loan.InterestRate != 0 {
		rate = *loan.InterestRate
	}
	tenure := loan.LoanTenureYears
	if tenure == 0 {
		tenure = d.opts.DefaultTenureYears
	}

	result, err := d.c.EMI.Compute(loan.LoanAmount, rate, tenure)
	if err != nil {
		return err
	}

	amount := result.EMIAmount
	data.EMIResult = result
	loan.EMIAmount = &amount
	return nil
}
