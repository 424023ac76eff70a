package workflow

import (
	"fmt"

	"solar-loan-workers/internal/models"
)

var (
	ErrLoanNotFound      = models.ErrLoanNotFound
	ErrLoanNotDraft      = models.ErrLoanNotDraft
	ErrLoanNotSubmitted  = models.ErrLoanNotSubmitted
	ErrIllegalTransition = models.ErrIllegalTransition
)

// StepError reports the step that ended a run in rejected.
type StepError struct {
	Step  string
	Cause error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("loan workflow step %q failed: %v", e.Step, e.Cause)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}
