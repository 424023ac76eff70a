package submitloanapplication

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"solar-loan-workers/internal/common/errors"
	"solar-loan-workers/internal/common/logger"
	"solar-loan-workers/internal/models"
	"solar-loan-workers/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) Submit(ctx context.Context, loanID string) (*models.LoanApplication, error) {
	args := m.Called(ctx, loanID)
	if loan, ok := args.Get(0).(*models.LoanApplication); ok {
		return loan, args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestHandler(t *testing.T, s Submitter) *Handler {
	return NewHandler(&Config{Timeout: 5 * time.Second}, s, logger.NewTestLogger(t))
}

func f(v float64) *float64 { return &v }

func TestHandler_Execute_Completed(t *testing.T) {
	s := new(MockSubmitter)
	s.On("Submit", mock.Anything, "loan-001").Return(&models.LoanApplication{
		ID:                 "loan-001",
		Status:             models.StatusEMICalculated,
		CurrentStep:        models.StepReview,
		EMIAmount:          f(2051.65),
		SubsidyAmount:      f(1800),
		AIEligibilityScore: f(75),
	}, nil)

	out, err := newTestHandler(t, s).Execute(context.Background(), &Input{LoanID: "loan-001"})
	require.NoError(t, err)

	assert.Equal(t, models.StatusEMICalculated, out.Status)
	assert.Equal(t, models.StepReview, out.CurrentStep)
	assert.Equal(t, 2051.65, *out.EMIAmount)
	assert.Equal(t, 1800.0, *out.SubsidyAmount)
	assert.Equal(t, 75.0, *out.EligibilityScore)
	assert.Empty(t, out.Error)
}

func TestHandler_Execute_RejectedCompletesJob(t *testing.T) {
	s := new(MockSubmitter)
	rejected := &models.LoanApplication{
		ID:          "loan-001",
		Status:      models.StatusRejected,
		CurrentStep: models.StepCIBIL,
	}
	s.On("Submit", mock.Anything, "loan-001").Return(rejected, &workflow.StepError{
		Step:  models.StepCIBIL,
		Cause: stderrors.New("credit bureau: 503"),
	})

	out, err := newTestHandler(t, s).Execute(context.Background(), &Input{LoanID: "loan-001"})
	require.NoError(t, err)

	assert.Equal(t, models.StatusRejected, out.Status)
	assert.Equal(t, models.StepCIBIL, out.FailedStep)
	assert.Equal(t, "credit bureau: 503", out.Error)
	assert.Equal(t, "CREDIT_BUREAU_ERROR", out.ErrorCode)
	assert.Nil(t, out.EMIAmount)
}

func TestStepFailure(t *testing.T) {
	cause := stderrors.New("boom")
	tests := []struct {
		step  string
		cause error
		want  errors.ErrorCode
	}{
		{models.StepKYC, cause, errors.ErrCodeKYCServiceError},
		{models.StepCIBIL, cause, errors.ErrCodeCreditBureauError},
		{models.StepAIEligibility, cause, errors.ErrCodeEligibilityError},
		{models.StepSubsidy, cause, errors.ErrCodeWorkflowStepFailed},
		{models.StepEMI, cause, errors.ErrCodeWorkflowStepFailed},
		{models.StepKYC, fmt.Errorf("kyc: %w", context.DeadlineExceeded), errors.ErrCodeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.step+"/"+tt.cause.Error(), func(t *testing.T) {
			got := stepFailure(&workflow.StepError{Step: tt.step, Cause: tt.cause})
			assert.Equal(t, tt.want, got.Code)
		})
	}
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name      string
		loan      *models.LoanApplication
		err       error
		wantCode  errors.ErrorCode
		retryable bool
	}{
		{
			name:     "not found",
			err:      fmt.Errorf("get loan: %w", workflow.ErrLoanNotFound),
			wantCode: errors.ErrCodeLoanNotFound,
		},
		{
			name:     "already submitted",
			loan:     &models.LoanApplication{ID: "loan-001", Status: models.StatusKYCCompleted},
			err:      fmt.Errorf("%w: loan-001", workflow.ErrLoanNotDraft),
			wantCode: errors.ErrCodeLoanNotDraft,
		},
		{
			name:      "database failure",
			err:       stderrors.New("connection refused"),
			wantCode:  errors.ErrCodeQueryExecutionFailed,
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := new(MockSubmitter)
			s.On("Submit", mock.Anything, "loan-001").Return(tt.loan, tt.err)

			_, err := newTestHandler(t, s).Execute(context.Background(), &Input{LoanID: "loan-001"})

			var stdErr *errors.StandardError
			require.True(t, stderrors.As(err, &stdErr))
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
		})
	}
}

func TestHandler_Execute_NotDraftThrowsBPMNError(t *testing.T) {
	s := new(MockSubmitter)
	s.On("Submit", mock.Anything, "loan-001").Return(
		&models.LoanApplication{ID: "loan-001", Status: models.StatusRejected},
		fmt.Errorf("%w: loan-001", workflow.ErrLoanNotDraft),
	)

	_, err := newTestHandler(t, s).Execute(context.Background(), &Input{LoanID: "loan-001"})

	bpmnErr := errors.ConvertToBPMNError(errors.Normalize(err))
	assert.Equal(t, "LOAN_NOT_DRAFT", bpmnErr.Code)
	assert.Zero(t, bpmnErr.Retries)
	assert.Contains(t, bpmnErr.Details, "status: rejected")
}

func TestHandler_Execute_MissingLoanID(t *testing.T) {
	s := new(MockSubmitter)

	_, err := newTestHandler(t, s).Execute(context.Background(), &Input{})

	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeLoanValidationFailed, stdErr.Code)
	s.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}
