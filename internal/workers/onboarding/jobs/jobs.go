// internal/workers/onboarding/jobs/jobs.go
package jobs

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"merchant-onboarding/internal/application"
	"merchant-onboarding/internal/common/camunda"
	apperrors "merchant-onboarding/internal/common/errors"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/common/validation"
	"merchant-onboarding/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// Decode validates the job variables against schema and unmarshals them
// into out. invalid builds the error returned for a schema violation.
func Decode(job entities.Job, schema *validation.Schema, out interface{}, invalid func(details string) *apperrors.StandardError) error {
	res, err := schema.ValidateJSON(job.Variables)
	if err != nil {
		return apperrors.NewParseError(err)
	}
	if !res.Valid {
		return invalid(res.Summary()).WithMetadata("validationErrors", res.Errors)
	}
	if err := json.Unmarshal([]byte(job.Variables), out); err != nil {
		return apperrors.NewParseError(err)
	}
	return nil
}

// DomainError converts the sentinel errors of the onboarding packages into
// StandardErrors carrying a BPMN code and retry policy.
func DomainError(applicationID string, err error) error {
	var stdErr *apperrors.StandardError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &stdErr):
		return stdErr
	case errors.Is(err, application.ErrNotFound):
		return apperrors.NewApplicationNotFoundError(applicationID)
	case errors.Is(err, application.ErrInvalidState):
		e := apperrors.NewInvalidStateTransitionError(applicationID, "", "")
		e.Details = err.Error()
		return e
	case errors.Is(err, application.ErrValidation):
		return apperrors.NewApplicationValidationFailedError(err.Error())
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return apperrors.NewDatabaseConnectionFailedError(err)
	case errors.Is(err, repository.ErrDatabaseInsertFailed):
		return apperrors.NewDatabaseInsertFailedError(err)
	case errors.Is(err, repository.ErrDatabaseQueryFailed):
		return apperrors.NewDatabaseQueryFailedError("application", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewQueryTimeoutError(fmt.Sprintf("application %s", applicationID))
	default:
		return apperrors.NewInternalError(err)
	}
}

// Complete sends the complete command with output as the job variables,
// retrying transient gateway failures.
func Complete(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}, log logger.Logger) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		log.Error("failed to create complete job command", map[string]interface{}{
			"error":  err,
			"jobKey": job.Key,
		})
		return apperrors.NewInternalError(err)
	}

	err = camunda.Retry(ctx, camunda.DefaultRetryConfig, func(ctx context.Context) error {
		_, err := cmd.Send(ctx)
		return err
	}, "complete job")
	if err != nil {
		log.Error("failed to send complete job command", map[string]interface{}{
			"error":  err,
			"jobKey": job.Key,
		})
		return apperrors.NewInternalError(err)
	}

	log.Info("job completed successfully", map[string]interface{}{"jobKey": job.Key})
	return nil
}
