// internal/workers/onboarding/analyze-document/handler.go
package analyzedocument

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	apperrors "merchant-onboarding/internal/common/errors"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/common/metrics"
	"merchant-onboarding/internal/common/validation"
	"merchant-onboarding/internal/fusion"
	"merchant-onboarding/internal/models"
	"merchant-onboarding/internal/workers/onboarding/jobs"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "analyze-document"
)

var (
	ErrDocumentValidation = errors.New("DOCUMENT_VALIDATION_FAILED")
)

// Only PDFs and raster images go through the analyzers; other allowed types
// are accepted and stored without analysis.
var analyzableMIMETypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/jpg":       true,
}

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tiff": true,
	".txt":  true,
}

// DocumentAnalyzer runs the analyzers over one document.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, content []byte, mimeType string) *fusion.AnalysisResults
}

type Handler struct {
	config   *Config
	analyzer DocumentAnalyzer
	errors   *apperrors.ErrorHandler
	now      func() time.Time
	logger   logger.Logger
}

func NewHandler(config *Config, analyzer DocumentAnalyzer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		analyzer: analyzer,
		errors:   apperrors.NewErrorHandler(log),
		now:      time.Now,
		logger:   log,
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
	if err := jobs.Decode(job, validation.AnalyzeDocument, &input, apperrors.NewDocumentValidationFailedError); err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return err
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		if errors.Is(err, ErrDocumentValidation) {
			err = apperrors.NewDocumentValidationFailedError(err.Error())
		}
		h.errors.HandleJobError(ctx, client, job, err)
		return err
	}

	return jobs.Complete(ctx, client, job, output, h.logger)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	mimeType, err := h.checkType(input)
	if err != nil {
		return nil, err
	}

	content, err := decodeContent(input.DocumentContent)
	if err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: document is empty", ErrDocumentValidation)
	}
	if int64(len(content)) > h.config.MaxDocumentBytes {
		return nil, fmt.Errorf("%w: file too large: %d bytes, max %d", ErrDocumentValidation, len(content), h.config.MaxDocumentBytes)
	}

	output := &Output{
		DocumentID:   uuid.New().String(),
		DocumentType: input.DocumentType,
		SizeBytes:    len(content),
	}

	if !analyzableMIMETypes[mimeType] {
		output.AnalysisStatus = StatusSkipped
		output.Message = "analysis is only available for PDF and image files"
		h.logger.Info("document analysis skipped", map[string]interface{}{
			"documentType": input.DocumentType,
			"mimeType":     mimeType,
		})
		return output, nil
	}

	results := h.analyzer.Analyze(ctx, content, mimeType)
	report := results.Report(h.now())

	metrics.FusionConfidence.Observe(report.FusionConfidence)
	metrics.FusionActions.WithLabelValues(string(report.RecommendedAction)).Inc()

	output.AnalysisStatus = StatusCompleted
	output.FusionReport = &report
	output.AnalyzerOutcomes = map[string]string{
		"text":   outcome(results.Text),
		"vision": outcome(results.Vision),
		"nlp":    outcome(results.NLP),
	}
	if text := models.Succeeded(results.Text); text != nil {
		output.FormFields = text.StructuredFields
		output.ExtractedText = text.ExtractedText
	}

	h.logger.Info("document analyzed", map[string]interface{}{
		"applicationId":     input.ApplicationID,
		"documentType":      input.DocumentType,
		"fusionConfidence":  report.FusionConfidence,
		"recommendedAction": report.RecommendedAction,
	})
	return output, nil
}

// checkType normalizes the declared MIME type and checks it, and the file
// extension when a file name is given, against the allow lists.
func (h *Handler) checkType(input *Input) (string, error) {
	mimeType, _, err := mime.ParseMediaType(input.MimeType)
	if err != nil {
		return "", fmt.Errorf("%w: invalid MIME type %q", ErrDocumentValidation, input.MimeType)
	}
	mimeType = strings.ToLower(mimeType)

	allowed := false
	for _, t := range h.config.AllowedMIMETypes {
		if strings.EqualFold(t, mimeType) {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", fmt.Errorf("%w: MIME type %s is not accepted", ErrDocumentValidation, mimeType)
	}

	if input.FileName != "" {
		ext := strings.ToLower(filepath.Ext(input.FileName))
		if !allowedExtensions[ext] {
			return "", fmt.Errorf("%w: file extension %q is not accepted", ErrDocumentValidation, ext)
		}
	}
	return mimeType, nil
}

func decodeContent(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	content, err := base64.StdEncoding.DecodeString(encoded)
	if err == nil {
		return content, nil
	}
	if content, rawErr := base64.RawStdEncoding.DecodeString(encoded); rawErr == nil {
		return content, nil
	}
	return nil, fmt.Errorf("%w: documentContent is not valid base64: %v", ErrDocumentValidation, err)
}

func outcome(r models.AnalyzerResult) string {
	if f, ok := r.(*models.AnalyzerFailure); ok && f != nil {
		return "failure: " + f.Reason
	}
	if models.Succeeded(r) != nil {
		return "success"
	}
	return "failure"
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
