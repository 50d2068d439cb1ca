// internal/models/analysis.go
package models

import "time"

type EntityType string

const (
	EntityPerson       EntityType = "PERSON"
	EntityOrganization EntityType = "ORGANIZATION"
	EntityLocation     EntityType = "LOCATION"
	EntityOther        EntityType = "OTHER"
)

// ParseEntityType maps analyzer-specific type labels onto the four known kinds.
func ParseEntityType(s string) EntityType {
	switch EntityType(s) {
	case EntityPerson, EntityOrganization, EntityLocation:
		return EntityType(s)
	default:
		return EntityOther
	}
}

type Entity struct {
	Name     string     `json:"name"`
	Type     EntityType `json:"type"`
	Salience float64    `json:"salience"`
}

// VisualSignals are the raw detections returned by the vision analyzer.
type VisualSignals struct {
	TextDetected    bool `json:"textDetected"`
	ObjectsDetected int  `json:"objectsDetected"`
	LogosDetected   int  `json:"logosDetected"`
	FacesDetected   int  `json:"facesDetected"`
}

// AnalyzerResult is either *AnalyzerSuccess or *AnalyzerFailure.
type AnalyzerResult interface {
	isAnalyzerResult()
}

type AnalyzerSuccess struct {
	Confidence       float64           `json:"confidence"`
	ExtractedText    string            `json:"extractedText"`
	StructuredFields map[string]string `json:"structuredFields,omitempty"`
	Entities         []Entity          `json:"entities"`
	Visual           *VisualSignals    `json:"visual,omitempty"`
}

type AnalyzerFailure struct {
	Reason string `json:"reason"`
}

func (*AnalyzerSuccess) isAnalyzerResult() {}
func (*AnalyzerFailure) isAnalyzerResult() {}

// Succeeded returns the success payload, or nil for a failure or nil result.
func Succeeded(r AnalyzerResult) *AnalyzerSuccess {
	if s, ok := r.(*AnalyzerSuccess); ok && s != nil {
		return s
	}
	return nil
}

type RecommendedAction string

const (
	ActionAutoApprove RecommendedAction = "AUTO_APPROVE"
	ActionHumanReview RecommendedAction = "HUMAN_REVIEW"
	ActionReject      RecommendedAction = "REJECT"
)

type ProcessingQuality string

const (
	QualityHigh   ProcessingQuality = "HIGH"
	QualityMedium ProcessingQuality = "MEDIUM"
	QualityLow    ProcessingQuality = "LOW"
)

// Cross-validation check keys.
const (
	CheckTextExtractionQuality   = "textExtractionQuality"
	CheckDocumentAuthenticity    = "documentAuthenticity"
	CheckContentStructurePresent = "contentStructurePresent"
	CheckVisualIntegrity         = "visualIntegrity"
	CheckBusinessEntitiesPresent = "businessEntitiesPresent"
	CheckNoRiskKeywords          = "noRiskKeywords"
)

type FusionReport struct {
	DocumentAIConfidence    float64           `json:"documentAiConfidence"`
	VisionAuthenticityScore float64           `json:"visionAuthenticityScore"`
	NLPEntityCount          int               `json:"nlpEntityCount"`
	RiskKeywordsFound       []string          `json:"riskKeywordsFound"`
	ValidationChecks        map[string]bool   `json:"validationChecks"`
	ValidationScore         float64           `json:"validationScore"`
	FusionConfidence        float64           `json:"fusionConfidence"`
	RecommendedAction       RecommendedAction `json:"recommendedAction"`
	ProcessingQuality       ProcessingQuality `json:"processingQuality"`
	CrossValidationPassed   bool              `json:"crossValidationPassed"`
	AIAgreementScore        float64           `json:"aiAgreementScore"`
	AnalyzedAt              time.Time         `json:"analyzedAt,omitempty"`
}
