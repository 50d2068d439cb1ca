// internal/workers/onboarding/search-applications/handler.go
package searchapplications

import (
	"context"
	"errors"
	"fmt"

	apperrors "merchant-onboarding/internal/common/errors"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/common/validation"
	"merchant-onboarding/internal/repository"
	"merchant-onboarding/internal/workers/onboarding/jobs"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "search-applications"
)

var (
	ErrInvalidRange = errors.New("INVALID_RISK_SCORE_RANGE")
)

type Searcher interface {
	Search(ctx context.Context, q repository.SearchQuery) (*repository.SearchResult, error)
}

type Handler struct {
	config *Config
	search Searcher
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, search Searcher, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		search: search,
		errors: apperrors.NewErrorHandler(log),
		logger: log,
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
	if err := jobs.Decode(job, validation.SearchApplications, &input, apperrors.NewApplicationValidationFailedError); err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return err
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		err = h.classify(err)
		h.errors.HandleJobError(ctx, client, job, err)
		return err
	}

	return jobs.Complete(ctx, client, job, output, h.logger)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.MinRiskScore != nil && input.MaxRiskScore != nil && *input.MinRiskScore > *input.MaxRiskScore {
		return nil, fmt.Errorf("%w: minRiskScore %d exceeds maxRiskScore %d", ErrInvalidRange, *input.MinRiskScore, *input.MaxRiskScore)
	}

	result, err := h.search.Search(ctx, repository.SearchQuery{
		Text:         input.Text,
		Statuses:     input.Statuses,
		RiskLevels:   input.RiskLevels,
		MinRiskScore: input.MinRiskScore,
		MaxRiskScore: input.MaxRiskScore,
		From:         input.From,
		Size:         input.Size,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("applications searched", map[string]interface{}{
		"total":   result.Total,
		"results": len(result.Applications),
		"tookMs":  result.Took,
	})

	return &Output{
		Total:        result.Total,
		Applications: result.Applications,
		Took:         result.Took,
	}, nil
}

func (h *Handler) classify(err error) error {
	switch {
	case errors.Is(err, ErrInvalidRange):
		return apperrors.NewApplicationValidationFailedError(err.Error())
	case errors.Is(err, repository.ErrIndexNotFound):
		return apperrors.NewIndexNotFoundError(h.config.IndexName)
	case errors.Is(err, repository.ErrSearchQueryFailed):
		return apperrors.NewSearchQueryFailedError(h.config.IndexName, err)
	default:
		return jobs.DomainError("", err)
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
