package sendloannotification

import (
	"context"
	stderrors "errors"
	"time"

	"solar-loan-workers/internal/audit"
	"solar-loan-workers/internal/common/camunda"
	"solar-loan-workers/internal/common/errors"
	"solar-loan-workers/internal/common/logger"
	"solar-loan-workers/internal/common/metrics"
	"solar-loan-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "send-loan-notification"

	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

type ContactFinder interface {
	GetContact(ctx context.Context, userID string) (*models.Contact, error)
}

// EmailSender is satisfied by aws.Mailer.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) (string, error)
}

// SMSSender is satisfied by aws.SMSSender.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) (string, error)
}

// Dependencies of the handler. A nil Email or SMS disables that channel.
type Dependencies struct {
	Contacts ContactFinder
	Email    EmailSender
	SMS      SMSSender
	Audit    audit.Recorder
}

type Handler struct {
	config *Config
	deps   Dependencies
	logger logger.Logger
}

func NewHandler(config *Config, deps Dependencies, log logger.Logger) *Handler {
	if deps.Audit == nil {
		deps.Audit = audit.Nop{}
	}
	return &Handler{
		config: config,
		deps:   deps,
		logger: log.WithFields(map[string]interface{}{logger.FieldTaskType: TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := camunda.DecodeVariables(job, &input); err != nil {
		h.fail(ctx, client, job, errors.NewLoanValidationFailedError(err.Error()))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			logger.FieldJobKey: job.Key,
			logger.FieldLoanID: input.LoanID,
			"error":            err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

// Execute emails the borrower and, when the status has SMS copy, texts them too. A failed
// email fails the job for retry; a failed SMS is only reported in the output.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.LoanID == "" || input.UserID == "" {
		return nil, errors.NewLoanValidationFailedError("loanId and userId are required")
	}
	status, err := models.ParseLoanStatus(input.Status)
	if err != nil {
		return nil, errors.NewLoanValidationFailedError(err.Error())
	}
	tmpl, ok := templates[status]
	if !ok {
		return nil, errors.NewUnsupportedNotificationError(input.Status)
	}

	contact, err := h.deps.Contacts.GetContact(ctx, input.UserID)
	if err != nil {
		if stderrors.Is(err, models.ErrContactNotFound) {
			return nil, errors.NewContactNotFoundError(input.UserID)
		}
		return nil, errors.NewQueryExecutionFailedError("contact.get", err)
	}

	data := newTemplateData(contact, input)
	out := &Output{Notifications: []models.Notification{}}

	if h.deps.Email != nil && contact.Email != "" {
		n, err := h.sendEmail(ctx, contact, input, status, tmpl, data)
		if err != nil {
			return nil, err
		}
		out.Notifications = append(out.Notifications, n)
		out.Delivered = true
	}

	if h.deps.SMS != nil && tmpl.SMS != "" && contact.Phone != "" {
		n := h.sendSMS(ctx, contact, input, status, tmpl, data)
		out.Notifications = append(out.Notifications, n)
		out.Delivered = out.Delivered || n.Delivered
	}

	channels := make([]string, 0, len(out.Notifications))
	for _, n := range out.Notifications {
		if n.Delivered {
			channels = append(channels, n.Channel)
		}
	}
	loan := &models.LoanApplication{ID: input.LoanID, UserID: input.UserID}
	h.deps.Audit.Record(ctx, audit.NewLoanEvent(audit.EventNotificationSent, loan, map[string]interface{}{
		"status":   string(status),
		"channels": channels,
	}))

	return out, nil
}

func (h *Handler) sendEmail(ctx context.Context, contact *models.Contact, input *Input, status models.LoanStatus, tmpl models.NotificationTemplate, data templateData) (models.Notification, error) {
	subject, err := render("subject", tmpl.Subject, data)
	if err != nil {
		return models.Notification{}, errors.NewInternalError(err)
	}
	body, err := render("body", tmpl.Body, data)
	if err != nil {
		return models.Notification{}, errors.NewInternalError(err)
	}

	messageID, err := h.deps.Email.Send(ctx, contact.Email, subject, body)
	if err != nil {
		return models.Notification{}, errors.NewNotificationSendFailedError(ChannelEmail, err)
	}
	return models.Notification{
		RecipientID: contact.UserID,
		LoanID:      input.LoanID,
		Status:      string(status),
		Channel:     ChannelEmail,
		Delivered:   true,
		MessageID:   messageID,
	}, nil
}

func (h *Handler) sendSMS(ctx context.Context, contact *models.Contact, input *Input, status models.LoanStatus, tmpl models.NotificationTemplate, data templateData) models.Notification {
	n := models.Notification{
		RecipientID: contact.UserID,
		LoanID:      input.LoanID,
		Status:      string(status),
		Channel:     ChannelSMS,
	}

	message, err := render("sms", tmpl.SMS, data)
	if err == nil {
		n.MessageID, err = h.deps.SMS.Send(ctx, contact.Phone, message)
	}
	if err != nil {
		h.logger.Warn("sms notification failed", map[string]interface{}{
			logger.FieldLoanID: input.LoanID,
			"error":            err.Error(),
		})
		n.Error = err.Error()
		return n
	}
	n.Delivered = true
	return n
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	errors.NewErrorHandler(h.logger).HandleJobError(ctx, client, job, err)
}
