// internal/workers/onboarding/issue-contract/handler.go
package issuecontract

import (
	"context"
	"time"

	"merchant-onboarding/internal/application"
	apperrors "merchant-onboarding/internal/common/errors"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/common/validation"
	"merchant-onboarding/internal/terms"
	"merchant-onboarding/internal/workers/onboarding/jobs"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "issue-contract"
)

type ContractIssuer interface {
	IssueContract(ctx context.Context, id string) (*application.ContractResult, error)
}

type Handler struct {
	config  *Config
	service ContractIssuer
	errors  *apperrors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(config *Config, service ContractIssuer, log logger.Logger) *Handler {
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
	result, err := h.service.IssueContract(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}

	output := &Output{
		ContractID:    result.ContractID,
		ApplicationID: result.ApplicationID,
		MerchantName:  result.MerchantName,
		Status:        result.Status,
		Terms:         result.Terms,
		SignedAt:      result.SignedAt.UTC().Format(time.RFC3339),
		NextSteps:     result.NextSteps,
	}
	if result.Terms != nil {
		display := terms.Display(*result.Terms)
		output.TermsDisplay = &display
	}

	h.logger.Info("contract issued", map[string]interface{}{
		"applicationId": output.ApplicationID,
		"contractId":    output.ContractID,
	})
	return output, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
