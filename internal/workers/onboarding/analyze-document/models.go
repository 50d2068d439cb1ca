// internal/workers/onboarding/analyze-document/models.go
package analyzedocument

import "merchant-onboarding/internal/models"

type Input struct {
	ApplicationID   string `json:"applicationId,omitempty"`
	DocumentType    string `json:"documentType"`
	FileName        string `json:"fileName,omitempty"`
	MimeType        string `json:"mimeType"`
	DocumentContent string `json:"documentContent"` // base64
}

const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
)

type Output struct {
	DocumentID       string               `json:"documentId"`
	DocumentType     string               `json:"documentType"`
	AnalysisStatus   string               `json:"analysisStatus"`
	Message          string               `json:"message,omitempty"`
	SizeBytes        int                  `json:"sizeBytes"`
	FusionReport     *models.FusionReport `json:"fusionReport,omitempty"`
	FormFields       map[string]string    `json:"formFields,omitempty"`
	ExtractedText    string               `json:"extractedText,omitempty"`
	AnalyzerOutcomes map[string]string    `json:"analyzerOutcomes,omitempty"`
}
