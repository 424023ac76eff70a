package sendloannotification

import "solar-loan-workers/internal/models"

type Input struct {
	LoanID        string   `json:"loanId"`
	UserID        string   `json:"userId"`
	Status        string   `json:"status"`
	EMIAmount     *float64 `json:"emiAmount,omitempty"`
	SubsidyAmount *float64 `json:"subsidyAmount,omitempty"`
	Error         string   `json:"error,omitempty"` // rejection reason
}

type Output struct {
	Delivered     bool                  `json:"notificationDelivered"`
	Notifications []models.Notification `json:"notifications"`
}
