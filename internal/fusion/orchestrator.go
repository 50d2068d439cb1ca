// internal/fusion/orchestrator.go
package fusion

import (
	"context"
	"strings"
	"time"

	"merchant-onboarding/internal/analyzers"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/common/metrics"
	"merchant-onboarding/internal/models"
)

// minNLPTextChars is the shortest extracted text worth sending to the entity
// analyzer.
const minNLPTextChars = 10

// AnalysisResults holds one result per analyzer for a single document.
type AnalysisResults struct {
	Text   models.AnalyzerResult `json:"textAnalyzer"`
	Vision models.AnalyzerResult `json:"visionAnalyzer"`
	NLP    models.AnalyzerResult `json:"nlpAnalyzer"`
}

// Report scores the results and stamps the analysis time.
func (r *AnalysisResults) Report(now time.Time) models.FusionReport {
	report := Score(r.Text, r.Vision, r.NLP)
	report.AnalyzedAt = now.UTC()
	return report
}

type Orchestrator struct {
	text   analyzers.TextAnalyzer
	vision analyzers.VisionAnalyzer
	nlp    analyzers.EntityAnalyzer
	runner *Runner
	logger logger.Logger
}

func NewOrchestrator(
	text analyzers.TextAnalyzer,
	vision analyzers.VisionAnalyzer,
	nlp analyzers.EntityAnalyzer,
	runner *Runner,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		text:   text,
		vision: vision,
		nlp:    nlp,
		runner: runner,
		logger: logger.Component(log, "fusion"),
	}
}

// Analyze runs the text and vision analyzers concurrently, then the entity
// analyzer over the extracted text. It always returns three results. Caller
// cancellation is ignored; analyzer transports carry their own timeouts.
func (o *Orchestrator) Analyze(ctx context.Context, content []byte, mimeType string) *AnalysisResults {
	ctx = context.WithoutCancel(ctx)

	first := o.runner.RunAll(ctx,
		func(ctx context.Context) models.AnalyzerResult { return o.analyzeText(ctx, content, mimeType) },
		func(ctx context.Context) models.AnalyzerResult { return o.analyzeVision(ctx, content) },
	)
	results := &AnalysisResults{Text: first[0], Vision: first[1]}

	var extracted string
	if s := models.Succeeded(results.Text); s != nil {
		extracted = s.ExtractedText
	}

	if len([]rune(strings.TrimSpace(extracted))) < minNLPTextChars {
		o.logger.Debug("skipping entity analysis, extracted text too short", map[string]interface{}{
			"textLength": len(extracted),
		})
		results.NLP = &models.AnalyzerSuccess{Entities: []models.Entity{}}
	} else {
		results.NLP, _ = runSafely(ctx, func(ctx context.Context) models.AnalyzerResult {
			return o.analyzeEntities(ctx, extracted)
		})
	}

	o.logger.Info("document analysis complete", map[string]interface{}{
		"mimeType":  mimeType,
		"textOK":    models.Succeeded(results.Text) != nil,
		"visionOK":  models.Succeeded(results.Vision) != nil,
		"nlpOK":     models.Succeeded(results.NLP) != nil,
		"sizeBytes": len(content),
	})
	return results
}

func (o *Orchestrator) analyzeText(ctx context.Context, content []byte, mimeType string) models.AnalyzerResult {
	start := time.Now()
	out, err := o.text.AnalyzeDocument(ctx, content, mimeType)
	o.observe("text", start, err)
	if err != nil {
		return &models.AnalyzerFailure{Reason: err.Error()}
	}

	entities := make([]models.Entity, 0, len(out.Entities))
	for _, e := range out.Entities {
		entities = append(entities, models.Entity{
			Name:     e.Text,
			Type:     models.ParseEntityType(strings.ToUpper(e.Type)),
			Salience: e.Confidence,
		})
	}
	return &models.AnalyzerSuccess{
		Confidence:       clamp01(out.Confidence),
		ExtractedText:    out.Text,
		StructuredFields: out.FormFields,
		Entities:         entities,
	}
}

func (o *Orchestrator) analyzeVision(ctx context.Context, content []byte) models.AnalyzerResult {
	start := time.Now()
	out, err := o.vision.AnalyzeImage(ctx, content)
	o.observe("vision", start, err)
	if err != nil {
		return &models.AnalyzerFailure{Reason: err.Error()}
	}

	signals := models.VisualSignals{
		TextDetected:    out.TextDetected,
		ObjectsDetected: out.ObjectsDetected,
		LogosDetected:   out.LogosDetected,
		FacesDetected:   out.FacesDetected,
	}
	return &models.AnalyzerSuccess{
		Confidence:    VisionAuthenticity(signals, out.TextContent),
		ExtractedText: out.TextContent,
		Entities:      []models.Entity{},
		Visual:        &signals,
	}
}

func (o *Orchestrator) analyzeEntities(ctx context.Context, text string) models.AnalyzerResult {
	start := time.Now()
	out, err := o.nlp.AnalyzeEntities(ctx, text)
	o.observe("nlp", start, err)
	if err != nil {
		return &models.AnalyzerFailure{Reason: err.Error()}
	}

	entities := make([]models.Entity, 0, len(out.Entities))
	for _, e := range out.Entities {
		entities = append(entities, models.Entity{
			Name:     e.Name,
			Type:     models.ParseEntityType(strings.ToUpper(e.Type)),
			Salience: e.Salience,
		})
	}
	return &models.AnalyzerSuccess{
		Confidence:    1,
		ExtractedText: text,
		Entities:      entities,
	}
}

func (o *Orchestrator) observe(analyzer string, start time.Time, err error) {
	metrics.AnalyzerCallDuration.WithLabelValues(analyzer).Observe(time.Since(start).Seconds())
	outcome := "success"
	if err != nil {
		outcome = "failure"
		o.logger.Warn("analyzer failed", map[string]interface{}{
			"analyzer": analyzer,
			"error":    err.Error(),
		})
	}
	metrics.AnalyzerCalls.WithLabelValues(analyzer, outcome).Inc()
}
