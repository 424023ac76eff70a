package models

import (
	"errors"
	"fmt"
)

// LoanStatus is the single source of truth for a loan's workflow position.
type LoanStatus string

const (
	StatusDraft                  LoanStatus = "draft"
	StatusSubmitted              LoanStatus = "submitted"
	StatusKYCInProgress          LoanStatus = "kyc_in_progress"
	StatusKYCCompleted           LoanStatus = "kyc_completed"
	StatusCIBILChecking          LoanStatus = "cibil_checking"
	StatusCIBILCompleted         LoanStatus = "cibil_completed"
	StatusAIEligibilityChecking  LoanStatus = "ai_eligibility_checking"
	StatusAIEligibilityCompleted LoanStatus = "ai_eligibility_completed"
	StatusSubsidyChecking        LoanStatus = "subsidy_checking"
	StatusSubsidyCompleted       LoanStatus = "subsidy_completed"
	StatusEMICalculated          LoanStatus = "emi_calculated"
	StatusApproved               LoanStatus = "approved"
	StatusRejected               LoanStatus = "rejected"
	StatusDisbursed              LoanStatus = "disbursed"
)

// StatusOrder lists every status in lifecycle order.
var StatusOrder = []LoanStatus{
	StatusDraft,
	StatusSubmitted,
	StatusKYCInProgress,
	StatusKYCCompleted,
	StatusCIBILChecking,
	StatusCIBILCompleted,
	StatusAIEligibilityChecking,
	StatusAIEligibilityCompleted,
	StatusSubsidyChecking,
	StatusSubsidyCompleted,
	StatusEMICalculated,
	StatusApproved,
	StatusRejected,
	StatusDisbursed,
}

// ErrIllegalTransition is returned for a status change the transition table does not allow.
var ErrIllegalTransition = errors.New("ILLEGAL_STATUS_TRANSITION")

// transitions maps each status to the statuses it may move to. rejected is added
// for every in-progress status in init.
var transitions = map[LoanStatus][]LoanStatus{
	StatusDraft:                  {StatusSubmitted},
	StatusSubmitted:              {StatusKYCInProgress},
	StatusKYCInProgress:          {StatusKYCCompleted},
	StatusKYCCompleted:           {StatusCIBILChecking},
	StatusCIBILChecking:          {StatusCIBILCompleted},
	StatusCIBILCompleted:         {StatusAIEligibilityChecking},
	StatusAIEligibilityChecking:  {StatusAIEligibilityCompleted},
	StatusAIEligibilityCompleted: {StatusSubsidyChecking},
	StatusSubsidyChecking:        {StatusSubsidyCompleted},
	StatusSubsidyCompleted:       {StatusEMICalculated},
	StatusEMICalculated:          {StatusApproved},
	StatusApproved:               {StatusDisbursed},
	StatusRejected:               nil,
	StatusDisbursed:              nil,
}

var statusRank = make(map[LoanStatus]int, len(StatusOrder))

func init() {
	for i, s := range StatusOrder {
		statusRank[s] = i
		if s.InProgress() {
			transitions[s] = append(transitions[s], StatusRejected)
		}
	}
}

// ParseLoanStatus validates a persisted status string.
func ParseLoanStatus(s string) (LoanStatus, error) {
	st := LoanStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown loan status %q", s)
	}
	return st, nil
}

// Valid reports whether s is one of the known statuses.
func (s LoanStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// InProgress reports whether the loan has been submitted and has not reached a terminal state.
func (s LoanStatus) InProgress() bool {
	switch s {
	case StatusDraft, StatusApproved, StatusRejected, StatusDisbursed:
		return false
	}
	return true
}

// Running reports whether a workflow run is still moving the loan. emi_calculated is
// in progress but waits on underwriting, not on a run.
func (s LoanStatus) Running() bool {
	return s.InProgress() && s != StatusEMICalculated
}

// IsTerminal reports whether the loan has left the origination workflow.
func (s LoanStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusDisbursed
}

// Rank is the position of s in StatusOrder, or -1.
func (s LoanStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// NextStatuses returns the statuses reachable from s in one transition.
func (s LoanStatus) NextStatuses() []LoanStatus {
	out := make([]LoanStatus, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to LoanStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrIllegalTransition wrapped with both states when from -> to is not allowed.
func ValidateTransition(from, to LoanStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}
