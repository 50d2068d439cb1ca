// internal/workers/onboarding/send-decision-notification/handler.go
package senddecisionnotification

import (
	"context"
	"errors"

	apperrors "merchant-onboarding/internal/common/errors"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/common/validation"
	"merchant-onboarding/internal/models"
	"merchant-onboarding/internal/notification"
	"merchant-onboarding/internal/workers/onboarding/jobs"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "send-decision-notification"
)

type StatusReader interface {
	GetStatus(ctx context.Context, id string) (*models.Application, error)
}

type Sender interface {
	Send(ctx context.Context, app *models.Application, typ models.NotificationType) (*models.Notification, error)
}

type Handler struct {
	config       *Config
	applications StatusReader
	sender       Sender
	errors       *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, applications StatusReader, sender Sender, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		applications: applications,
		sender:       sender,
		errors:       apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := jobs.Decode(job, validation.SendNotification, &input, apperrors.NewApplicationValidationFailedError); err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return err
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		err = h.classify(&input, err)
		h.errors.HandleJobError(ctx, client, job, err)
		return err
	}

	return jobs.Complete(ctx, client, job, output, h.logger)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	app, err := h.applications.GetStatus(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}

	sent, err := h.sender.Send(ctx, app, input.NotificationType)
	if err != nil {
		return nil, err
	}

	return &Output{
		NotificationID:     sent.ID,
		NotificationStatus: sent.Status,
		Channels:           sent.Channels,
		FailedChannels:     sent.FailedChannels,
		SentAt:             sent.SentAt,
	}, nil
}

func (h *Handler) classify(input *Input, err error) error {
	switch {
	case errors.Is(err, notification.ErrNotificationSendFailed):
		return apperrors.NewNotificationSendFailedError(string(input.NotificationType), err)
	case errors.Is(err, notification.ErrNotificationMismatch):
		e := apperrors.NewInvalidStateTransitionError(input.ApplicationID, "", "")
		e.Details = err.Error()
		return e
	default:
		return jobs.DomainError(input.ApplicationID, err)
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
