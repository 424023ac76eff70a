package models

import "errors"

var (
	ErrLoanNotFound     = errors.New("LOAN_NOT_FOUND")
	ErrLoanNotDraft     = errors.New("LOAN_NOT_DRAFT")
	ErrLoanNotSubmitted = errors.New("LOAN_NOT_SUBMITTED")
	ErrContactNotFound  = errors.New("CONTACT_NOT_FOUND")
)
