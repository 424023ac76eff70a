// Package audit records loan lifecycle events. Recording is best effort: a sink failure is
// logged and counted, and never fails the caller.
package audit

import (
	"context"
	"time"

	"solar-loan-workers/internal/common/logger"
	"solar-loan-workers/internal/common/metrics"
	"solar-loan-workers/internal/models"

	"github.com/google/uuid"
)

const (
	EventLoanCreated       = "loan_created"
	EventLoanUpdated       = "loan_updated"
	EventLoanStatusChanged = "loan_status_changed"
	EventNotificationSent  = "loan_notification_sent"

	ResourceLoan = "loan_application"
)

// Event is one audit record.
type Event struct {
	ID           string                 `json:"id"`
	Type         string                 `json:"event_type"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id"`
	UserID       string                 `json:"user_id,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
	At           time.Time              `json:"@timestamp"`
}

// NewLoanEvent builds an event about a loan, stamped now.
func NewLoanEvent(eventType string, loan *models.LoanApplication, details map[string]interface{}) Event {
	return Event{
		ID:           uuid.New().String(),
		Type:         eventType,
		ResourceType: ResourceLoan,
		ResourceID:   loan.ID,
		UserID:       loan.UserID,
		Details:      details,
		At:           time.Now().UTC(),
	}
}

// StatusChanged describes a persisted status transition.
func StatusChanged(loan *models.LoanApplication, from models.LoanStatus) Event {
	details := map[string]interface{}{
		"from":         string(from),
		"to":           string(loan.Status),
		"current_step": loan.CurrentStep,
	}
	if loan.WorkflowData.Failed() {
		details["error"] = loan.WorkflowData.Error
	}
	return NewLoanEvent(EventLoanStatusChanged, loan, details)
}

// Sink stores audit events.
type Sink interface {
	Record(ctx context.Context, e Event) error
}

// Recorder is what domain code holds. It has no error return.
type Recorder interface {
	Record(ctx context.Context, e Event)
}

type namedSink struct {
	name string
	sink Sink
}

// Multi fans an event out to every sink.
type Multi struct {
	sinks  []namedSink
	logger logger.Logger
}

func NewMulti(log logger.Logger) *Multi {
	return &Multi{logger: log}
}

// Add registers a sink under name, used in logs and the failure metric.
func (m *Multi) Add(name string, sink Sink) *Multi {
	m.sinks = append(m.sinks, namedSink{name: name, sink: sink})
	return m
}

func (m *Multi) Record(ctx context.Context, e Event) {
	for _, s := range m.sinks {
		if err := s.sink.Record(ctx, e); err != nil {
			metrics.AuditSinkFailures.WithLabelValues(s.name).Inc()
			m.logger.Warn("audit sink failed", map[string]interface{}{
				"sink":       s.name,
				"eventType":  e.Type,
				"resourceId": e.ResourceID,
				"error":      err.Error(),
			})
		}
	}
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}
