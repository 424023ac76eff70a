// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode is an internal error code. Codes double as BPMN error codes.
type ErrorCode string

// Loan lifecycle errors
const (
	ErrCodeLoanNotFound          ErrorCode = "LOAN_NOT_FOUND"
	ErrCodeLoanNotDraft          ErrorCode = "LOAN_NOT_DRAFT"
	ErrCodeLoanValidationFailed  ErrorCode = "LOAN_VALIDATION_FAILED"
	ErrCodeWorkflowStepFailed    ErrorCode = "WORKFLOW_STEP_FAILED"
	ErrCodeInvalidCalculation    ErrorCode = "INVALID_CALCULATION_INPUT"
	ErrCodeContactNotFound       ErrorCode = "CONTACT_NOT_FOUND"
	ErrCodeUnsupportedNotifyType ErrorCode = "UNSUPPORTED_NOTIFICATION"
)

// Collaborator errors
const (
	ErrCodeKYCServiceError    ErrorCode = "KYC_SERVICE_ERROR"
	ErrCodeCreditBureauError  ErrorCode = "CREDIT_BUREAU_ERROR"
	ErrCodeEligibilityError   ErrorCode = "ELIGIBILITY_ERROR"
	ErrCodeNotificationFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// Infrastructure errors
const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeTimeout                  ErrorCode = "TIMEOUT_ERROR"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
}

// WithMetadata attaches a key/value pair that travels into the BPMN error variables.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError is an error thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns the variables sent with a fail or throw command.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func NewLoanNotFoundError(loanID string) *StandardError {
	return newError(ErrCodeLoanNotFound, "Loan application not found",
		fmt.Sprintf("loanId: %s", loanID), false)
}

// NewLoanNotDraftError reports a submission or edit against a loan that already left draft.
func NewLoanNotDraftError(loanID, status string) *StandardError {
	return newError(ErrCodeLoanNotDraft, "Loan application already submitted",
		fmt.Sprintf("loanId: %s, status: %s", loanID, status), false)
}

func NewLoanValidationFailedError(details string) *StandardError {
	return newError(ErrCodeLoanValidationFailed, "Loan application data validation failed", details, false)
}

// NewWorkflowStepFailedError is raised when a run ends in rejected.
func NewWorkflowStepFailedError(step string, err error) *StandardError {
	return newError(ErrCodeWorkflowStepFailed, fmt.Sprintf("Loan workflow failed at step '%s'", step),
		err.Error(), false).WithMetadata("failedStep", step)
}

func NewInvalidCalculationError(details string) *StandardError {
	return newError(ErrCodeInvalidCalculation, "Invalid calculation input", details, false)
}

func NewContactNotFoundError(userID string) *StandardError {
	return newError(ErrCodeContactNotFound, "Borrower contact details not found",
		fmt.Sprintf("userId: %s", userID), false)
}

func NewUnsupportedNotificationError(status string) *StandardError {
	return newError(ErrCodeUnsupportedNotifyType, "No notification template for status",
		fmt.Sprintf("status: %s", status), false)
}

func NewKYCServiceError(err error) *StandardError {
	return newError(ErrCodeKYCServiceError, "KYC verification service error", err.Error(), true)
}

func NewCreditBureauError(err error) *StandardError {
	return newError(ErrCodeCreditBureauError, "Credit bureau request failed", err.Error(), true)
}

func NewEligibilityError(err error) *StandardError {
	return newError(ErrCodeEligibilityError, "Eligibility scoring failed", err.Error(), true)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

func NewQueryExecutionFailedError(query string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("query: %s, error: %s", query, err.Error()), true)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the job retry budget for a code. Zero means throw a BPMN error.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeNotificationFailed:
		return 3

	case ErrCodeKYCServiceError,
		ErrCodeCreditBureauError,
		ErrCodeEligibilityError,
		ErrCodeTimeout:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for logs and dashboards.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "LOAN") || strings.HasPrefix(codeStr, "WORKFLOW"):
		return "LOAN"
	case strings.HasPrefix(codeStr, "KYC") || strings.HasPrefix(codeStr, "CREDIT") || strings.HasPrefix(codeStr, "ELIGIBILITY"):
		return "COLLABORATOR"
	case strings.HasPrefix(codeStr, "DATABASE") || strings.HasPrefix(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.HasPrefix(codeStr, "CONTACT"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
