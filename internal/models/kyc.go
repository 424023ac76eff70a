package models

import "time"

type KYCStatus string

const (
	KYCPending    KYCStatus = "pending"
	KYCInProgress KYCStatus = "in_progress"
	KYCVerified   KYCStatus = "verified"
	KYCFailed     KYCStatus = "failed"
	KYCRejected   KYCStatus = "rejected"
)

// KYCRecord is one identity verification (PAN, Aadhaar, bank account) for a user.
type KYCRecord struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	LoanApplicationID string     `json:"loan_application_id,omitempty"`
	KYCType           string     `json:"kyc_type"`
	Status            KYCStatus  `json:"status"`
	VerifiedAt        *time.Time `json:"verified_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

type KYCCheck struct {
	Type   string    `json:"type"`
	Status KYCStatus `json:"status"`
}

// KYCSummary is the KYC step result. Unverified records are reported, never raised.
type KYCSummary struct {
	TotalChecks   int        `json:"total_checks"`
	VerifiedCount int        `json:"verified_count"`
	Records       []KYCCheck `json:"records"`
}
