package updateloanapplication

import (
	"time"

	"solar-loan-workers/internal/models"
)

type Input struct {
	LoanID  string           `json:"loanId"`
	UserID  string           `json:"userId"`
	Changes models.LoanPatch `json:"changes"`
}

type Output struct {
	LoanID    string            `json:"loanId"`
	Status    models.LoanStatus `json:"status"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
