package models

// Contact is the borrower's delivery details for status notifications.
type Contact struct {
	UserID   string `json:"userId"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

// Notification records one delivery attempt.
type Notification struct {
	RecipientID string `json:"recipientId"`
	LoanID      string `json:"loanId"`
	Status      string `json:"status"`  // loan status that triggered it
	Channel     string `json:"channel"` // "email", "sms"
	Delivered   bool   `json:"delivered"`
	MessageID   string `json:"messageId,omitempty"`
	Error       string `json:"error,omitempty"`
}

// NotificationTemplate is the rendered copy for one loan status.
type NotificationTemplate struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	SMS     string `json:"sms,omitempty"`
}
