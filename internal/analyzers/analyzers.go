// Package analyzers holds the clients for the three external content-analysis
// services: text/structure extraction, visual authenticity signals and
// entity/language extraction.
package analyzers

import "context"

// Truncation limits applied to analyzer text before it enters the pipeline.
const (
	MaxExtractedTextChars = 2000
	MaxVisionTextChars    = 1000
	MaxNLPInputChars      = 1000
)

type TextEntity struct {
	Type       string  `json:"type"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type TextAnalysis struct {
	Text       string            `json:"text"`
	Entities   []TextEntity      `json:"entities"`
	FormFields map[string]string `json:"formFields"`
	Confidence float64           `json:"confidence"`
}

type VisionAnalysis struct {
	TextDetected    bool    `json:"textDetected"`
	TextContent     string  `json:"textContent"`
	TextConfidence  float64 `json:"textConfidence"`
	ObjectsDetected int     `json:"objectsDetected"`
	LogosDetected   int     `json:"logosDetected"`
	FacesDetected   int     `json:"facesDetected"`
}

type NLPEntity struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Salience float64  `json:"salience"`
	Mentions []string `json:"mentions,omitempty"`
}

type NLPAnalysis struct {
	Entities []NLPEntity `json:"entities"`
}

type TextAnalyzer interface {
	AnalyzeDocument(ctx context.Context, content []byte, mimeType string) (*TextAnalysis, error)
}

type VisionAnalyzer interface {
	AnalyzeImage(ctx context.Context, content []byte) (*VisionAnalysis, error)
}

type EntityAnalyzer interface {
	AnalyzeEntities(ctx context.Context, text string) (*NLPAnalysis, error)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
