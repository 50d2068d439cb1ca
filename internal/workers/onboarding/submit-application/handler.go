// internal/workers/onboarding/submit-application/handler.go
package submitapplication

import (
	"context"
	"time"

	"merchant-onboarding/internal/application"
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
	TaskType = "submit-application"
)

type Submitter interface {
	Submit(ctx context.Context, req application.SubmitRequest) (*application.SubmitResult, error)
}

type Handler struct {
	config  *Config
	service Submitter
	errors  *apperrors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(config *Config, service Submitter, log logger.Logger) *Handler {
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
	if err := jobs.Decode(job, validation.SubmitApplication, &input, apperrors.NewApplicationValidationFailedError); err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return err
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		err = jobs.DomainError("", err)
		h.errors.HandleJobError(ctx, client, job, err)
		return err
	}

	return jobs.Complete(ctx, client, job, output, h.logger)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.service.Submit(ctx, application.SubmitRequest{
		PersonalData:          input.PersonalData,
		BusinessData:          input.BusinessData,
		DocumentFusionReports: input.DocumentFusionReports,
	})
	if err != nil {
		return nil, err
	}

	output := &Output{
		ApplicationID:  result.ApplicationID,
		Status:         result.Status,
		Approved:       result.Status == models.StatusApproved,
		RiskScore:      result.RiskScore,
		RiskLevel:      result.RiskLevel,
		DecisionReason: result.DecisionReason,
		Terms:          result.Terms,
		CreatedAt:      result.CreatedAt.UTC().Format(time.RFC3339),
	}
	if result.Terms != nil {
		display := terms.Display(*result.Terms)
		output.TermsDisplay = &display
	}

	h.logger.Info("application submitted", map[string]interface{}{
		"applicationId": output.ApplicationID,
		"status":        output.Status,
		"riskScore":     output.RiskScore,
	})
	return output, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
