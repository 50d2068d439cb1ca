// internal/workers/onboarding/get-application-status/handler.go
package getapplicationstatus

import (
	"context"
	"time"

	apperrors "merchant-onboarding/internal/common/errors"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/common/validation"
	"merchant-onboarding/internal/models"
	"merchant-onboarding/internal/terms"
	"merchant-onboarding/internal/workers/onboarding/jobs"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "get-application-status"
)

type StatusReader interface {
	GetStatus(ctx context.Context, id string) (*models.Application, error)
}

type Handler struct {
	config  *Config
	service StatusReader
	errors  *apperrors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(config *Config, service StatusReader, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		service: service,
		errors:  apperrors.NewErrorHandler(log),
		logger:  log,
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
	if err := jobs.Decode(job, validation.ApplicationRef, &input, apperrors.NewApplicationValidationFailedError); err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return err
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		err = jobs.DomainError(input.ApplicationID, err)
		h.errors.HandleJobError(ctx, client, job, err)
		return err
	}

	return jobs.Complete(ctx, client, job, output, h.logger)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	app, err := h.service.GetStatus(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}
	return toOutput(app), nil
}

func toOutput(app *models.Application) *Output {
	out := &Output{
		ApplicationID:    app.ApplicationID,
		MerchantName:     app.BusinessData.BusinessName,
		Status:           app.Status,
		RiskScore:        app.RiskScore,
		RiskLevel:        app.RiskLevel,
		DecisionReason:   app.DecisionReason,
		Terms:            app.Terms,
		ContractID:       app.ContractID,
		DocumentCount:    len(app.DocumentFusionReports),
		CreatedAt:        formatTime(&app.CreatedAt),
		UpdatedAt:        formatTime(&app.UpdatedAt),
		ProcessedAt:      formatTime(app.ProcessedAt),
		ContractSignedAt: formatTime(app.ContractSignedAt),
	}
	if app.Terms != nil {
		display := terms.Display(*app.Terms)
		out.TermsDisplay = &display
	}
	return out
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
