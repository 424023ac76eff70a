package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"solar-loan-workers/internal/common/logger"
	"solar-loan-workers/internal/models"
	"solar-loan-workers/internal/services/calculation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	loans   *memLoans
	kyc     *fakeKYC
	credit  *fakeCredit
	finder  *fakeFinder
	scorer  *fakeScorer
	audit   *recordingAudit
	driver  *Driver
	service *Service
}

func newHarness(t *testing.T, loan *models.LoanApplication, opts Options) *harness {
	t.Helper()
	h := &harness{
		loans:  newMemLoans(loan),
		kyc:    &fakeKYC{},
		credit: &fakeCredit{},
		finder: &fakeFinder{},
		scorer: &fakeScorer{},
		audit:  &recordingAudit{},
	}
	h.driver = NewDriver(h.loans, Collaborators{
		KYC:          h.kyc,
		Credit:       h.credit,
		CreditLookup: h.finder,
		Eligibility:  h.scorer,
		Subsidy:      calculation.NewSubsidyCalculator(nil),
		EMI:          calculation.NewEMICalculator(),
	}, opts, h.audit, nil, logger.NewTestLogger(t))
	h.service = NewService(h.loans, h.driver, h.audit, logger.NewTestLogger(t))
	return h
}

func (h *harness) collaboratorCalls() int {
	return h.kyc.calls + h.credit.calls + h.finder.calls + h.scorer.calls
}

func submittedLoan() *models.LoanApplication {
	return &models.LoanApplication{
		ID:               "loan-001",
		UserID:           "user-001",
		AnnualIncome:     900000,
		LoanAmount:       100000,
		SystemCapacityKW: 3.0,
		State:            "Maharashtra",
		PANNumber:        "ABCDE1234F",
		Status:           models.StatusSubmitted,
		CurrentStep:      models.StepKYC,
	}
}

func draftLoan() *models.LoanApplication {
	l := submittedLoan()
	l.Status = models.StatusDraft
	l.CurrentStep = ""
	return l
}

func TestDriver_FullRun(t *testing.T) {
	h := newHarness(t, submittedLoan(), Options{})

	loan, err := h.driver.Run(context.Background(), submittedLoan())
	require.NoError(t, err)

	assert.Equal(t, models.StatusEMICalculated, loan.Status)
	assert.Equal(t, models.StepReview, loan.CurrentStep)
	assert.Equal(t, []string{
		"kyc_completed",
		"cibil_completed",
		"ai_eligibility_completed",
		"subsidy_completed",
		"emi_calculated",
	}, loan.WorkflowData.Steps)

	require.NotNil(t, loan.AIEligibilityScore)
	assert.Equal(t, 75.0, *loan.AIEligibilityScore)
	assert.NotNil(t, loan.AIEligibilityResult)
	require.NotNil(t, loan.SubsidyAmount)
	assert.Equal(t, 1800.0, *loan.SubsidyAmount)
	require.NotNil(t, loan.EMIAmount)
	assert.Equal(t, 2051.65, *loan.EMIAmount)

	data := loan.WorkflowData
	assert.Equal(t, 2, data.KYCResult.VerifiedCount)
	assert.Equal(t, "cc-fresh", data.CIBILResult.ID)
	assert.Equal(t, 1200.0, data.SubsidyResult.CentralSubsidy)
	assert.Equal(t, 123099.19, data.EMIResult.TotalAmount)
	assert.False(t, data.Failed())

	assert.Equal(t, []models.LoanStatus{
		models.StatusKYCInProgress,
		models.StatusKYCCompleted,
		models.StatusCIBILChecking,
		models.StatusCIBILCompleted,
		models.StatusAIEligibilityChecking,
		models.StatusAIEligibilityCompleted,
		models.StatusSubsidyChecking,
		models.StatusSubsidyCompleted,
		models.StatusEMICalculated,
	}, h.loans.history)
	assert.Len(t, h.audit.events, len(h.loans.history))

	stored := h.loans.stored("loan-001")
	assert.Equal(t, models.StatusEMICalculated, stored.Status)
}

func TestDriver_StatusNeverRegressesExceptToRejected(t *testing.T) {
	h := newHarness(t, submittedLoan(), Options{})

	_, err := h.driver.Run(context.Background(), submittedLoan())
	require.NoError(t, err)

	prev := models.StatusSubmitted
	for _, st := range h.loans.history {
		assert.Greater(t, st.Rank(), prev.Rank(), "%s after %s", st, prev)
		prev = st
	}
}

func TestDriver_CreditFailureAfterKYC(t *testing.T) {
	h := newHarness(t, submittedLoan(), Options{})
	h.credit.err = errors.New("bureau unavailable")

	loan, err := h.driver.Run(context.Background(), submittedLoan())

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, models.StepCIBIL, stepErr.Step)
	assert.ErrorContains(t, err, "bureau unavailable")

	assert.Equal(t, models.StatusRejected, loan.Status)
	assert.Equal(t, models.StepCIBIL, loan.CurrentStep)
	require.True(t, loan.WorkflowData.Failed())
	assert.Equal(t, []string{"kyc_completed"}, loan.WorkflowData.CompletedSteps)
	assert.Equal(t, "bureau unavailable", loan.WorkflowData.Error)
	assert.Nil(t, loan.AIEligibilityScore)
	assert.Nil(t, loan.SubsidyAmount)
	assert.Nil(t, loan.EMIAmount)
	assert.Zero(t, h.scorer.calls)

	stored := h.loans.stored("loan-001")
	assert.Equal(t, models.StatusRejected, stored.Status)
	assert.Equal(t, models.StatusRejected, h.loans.history[len(h.loans.history)-1])
}

func TestDriver_FailedStepLeavesNoDerivedFields(t *testing.T) {
	h := newHarness(t, submittedLoan(), Options{})
	h.loans.failOn = models.StatusAIEligibilityCompleted

	loan, err := h.driver.Run(context.Background(), submittedLoan())

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, models.StepAIEligibility, stepErr.Step)
	assert.Equal(t, models.StatusRejected, loan.Status)
	assert.Nil(t, loan.AIEligibilityScore)
	assert.Nil(t, loan.AIEligibilityResult)
	assert.Equal(t, []string{"kyc_completed", "cibil_completed"}, loan.WorkflowData.CompletedSteps)
}

func TestDriver_ReusesValidCreditCheck(t *testing.T) {
	h := newHarness(t, submittedLoan(), Options{})

	score := 790
	expires := time.Now().Add(5 * 24 * time.Hour)
	cached := &models.CreditCheck{
		ID:           "cc-cached",
		UserID:       "user-001",
		Status:       models.CreditCheckCompleted,
		CreditScore:  &score,
		CreditRating: "Very Good",
		ExpiresAt:    &expires,
	}
	h.finder.check = cached

	loan, err := h.driver.Run(context.Background(), submittedLoan())
	require.NoError(t, err)

	assert.Zero(t, h.credit.calls)
	assert.Same(t, cached, loan.WorkflowData.CIBILResult)
	assert.Equal(t, 790, *loan.WorkflowData.CIBILResult.CreditScore)
}

func TestDriver_RequiresSubmitted(t *testing.T) {
	for _, status := range []models.LoanStatus{models.StatusDraft, models.StatusKYCInProgress, models.StatusRejected, models.StatusEMICalculated} {
		t.Run(string(status), func(t *testing.T) {
			loan := submittedLoan()
			loan.Status = status
			h := newHarness(t, loan, Options{})

			got, err := h.driver.Run(context.Background(), loan)

			assert.True(t, errors.Is(err, ErrLoanNotSubmitted))
			assert.Equal(t, status, got.Status)
			assert.Zero(t, h.collaboratorCalls())
			assert.Empty(t, h.loans.history)
		})
	}
}

func TestDriver_StepTimeoutRejects(t *testing.T) {
	h := newHarness(t, submittedLoan(), Options{StepTimeout: 20 * time.Millisecond})
	h.kyc.block = true

	loan, err := h.driver.Run(context.Background(), submittedLoan())

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, models.StepKYC, stepErr.Step)
	assert.Equal(t, models.StatusRejected, loan.Status)
	assert.Empty(t, loan.WorkflowData.CompletedSteps)
}

func TestDriver_CallerCancellationDoesNotRejectLoan(t *testing.T) {
	h := newHarness(t, submittedLoan(), Options{StepTimeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.kyc.after = cancel

	loan, err := h.driver.Run(ctx, submittedLoan())

	require.NoError(t, err)
	assert.Error(t, ctx.Err())
	assert.Equal(t, models.StatusEMICalculated, loan.Status)
	assert.Equal(t, 1, h.finder.calls)
	assert.Equal(t, 1, h.credit.calls)
	assert.Equal(t, 1, h.scorer.calls)
	assert.Equal(t, models.StatusEMICalculated, h.loans.stored(loan.ID).Status)
}

func TestDriver_EMIRate(t *testing.T) {
	tests := []struct {
		name    string
		rate    *float64
		tenure  int
		amount  float64
		wantEMI float64
	}{
		{"defaults to 8.5 over 5 years", nil, 0, 100000, 2051.65},
		{"zero rate takes the default", func() *float64 { r := 0.0; return &r }(), 0, 100000, 2051.65},
		{"loan rate and tenure", func() *float64 { r := 10.5; return &r }(), 7, 500000, 8430.34},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := submittedLoan()
			loan.InterestRate = tt.rate
			loan.LoanTenureYears = tt.tenure
			loan.LoanAmount = tt.amount
			h := newHarness(t, loan, Options{})

			got, err := h.driver.Run(context.Background(), loan)
			require.NoError(t, err)
			assert.Equal(t, tt.wantEMI, *got.EMIAmount)
		})
	}
}

func TestDriver_EMIStepHasNoInProgressStatus(t *testing.T) {
	h := newHarness(t, submittedLoan(), Options{})

	_, err := h.driver.Run(context.Background(), submittedLoan())
	require.NoError(t, err)

	n := len(h.loans.history)
	assert.Equal(t, models.StatusSubsidyCompleted, h.loans.history[n-2])
	assert.Equal(t, models.StatusEMICalculated, h.loans.history[n-1])
}
