package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-onboarding/internal/models"
)

func textSuccess(conf float64, entities int) *models.AnalyzerSuccess {
	s := &models.AnalyzerSuccess{Confidence: conf, ExtractedText: "Acme Trading LLC business license"}
	for i := 0; i < entities; i++ {
		s.Entities = append(s.Entities, models.Entity{Name: "field", Type: models.EntityOther})
	}
	return s
}

func visionSuccess(score float64, textDetected bool) *models.AnalyzerSuccess {
	return &models.AnalyzerSuccess{
		Confidence: score,
		Entities:   []models.Entity{},
		Visual:     &models.VisualSignals{TextDetected: textDetected},
	}
}

func nlpSuccess(entities ...models.Entity) *models.AnalyzerSuccess {
	return &models.AnalyzerSuccess{Confidence: 1, Entities: entities}
}

func TestScore_AllChecksPass(t *testing.T) {
	report := Score(
		textSuccess(0.95, 3),
		visionSuccess(0.9, true),
		nlpSuccess(models.Entity{Name: "Acme Trading LLC", Type: models.EntityOrganization}),
	)

	assert.Equal(t, 1.0, report.ValidationScore)
	assert.Len(t, report.ValidationChecks, 6)
	for key, ok := range report.ValidationChecks {
		assert.True(t, ok, key)
	}
	// 0.4*0.95 + 0.3*0.9 + 0.3*1
	assert.Equal(t, 0.95, report.FusionConfidence)
	assert.Equal(t, models.ActionAutoApprove, report.RecommendedAction)
	assert.Equal(t, models.QualityHigh, report.ProcessingQuality)
	assert.True(t, report.CrossValidationPassed)
	assert.Equal(t, 0.05, report.AIAgreementScore)
	assert.Equal(t, 1, report.NLPEntityCount)
	assert.Empty(t, report.RiskKeywordsFound)
}

func TestScore_AllAnalyzersFailed(t *testing.T) {
	failed := &models.AnalyzerFailure{Reason: "unavailable"}

	report := Score(failed, failed, failed)

	assert.Equal(t, 0.0, report.FusionConfidence)
	assert.Equal(t, 0.0, report.ValidationScore)
	assert.Equal(t, models.ActionReject, report.RecommendedAction)
	assert.Equal(t, models.QualityLow, report.ProcessingQuality)
	assert.False(t, report.CrossValidationPassed)
	assert.Len(t, report.ValidationChecks, 6)
	assert.NotNil(t, report.RiskKeywordsFound)
}

func TestScore_NilResultsTreatedAsFailures(t *testing.T) {
	report := Score(nil, nil, nil)
	assert.Equal(t, 0.0, report.FusionConfidence)
	assert.Equal(t, models.ActionReject, report.RecommendedAction)
}

func TestScore_InclusiveAutoApproveBoundary(t *testing.T) {
	// 5 of 6 checks pass: no ORGANIZATION or LOCATION entity.
	report := Score(
		textSuccess(0.75, 1),
		visionSuccess(1.0, true),
		nlpSuccess(models.Entity{Name: "Jane Doe", Type: models.EntityPerson}),
	)

	assert.False(t, report.ValidationChecks[models.CheckBusinessEntitiesPresent])
	assert.Equal(t, 0.833, report.ValidationScore)
	assert.Equal(t, 0.85, report.FusionConfidence)
	assert.Equal(t, models.ActionAutoApprove, report.RecommendedAction)
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name       string
		fusion     float64
		validation float64
		expected   models.RecommendedAction
	}{
		{"exact auto-approve thresholds", 0.85, 0.8, models.ActionAutoApprove},
		{"high confidence weak validation", 0.9, 0.79, models.ActionHumanReview},
		{"just under auto-approve", 0.849, 1.0, models.ActionHumanReview},
		{"exact review threshold", 0.60, 0.0, models.ActionHumanReview},
		{"below review threshold", 0.599, 1.0, models.ActionReject},
		{"zero", 0, 0, models.ActionReject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Decide(tt.fusion, tt.validation))
		})
	}
}

func TestQuality(t *testing.T) {
	assert.Equal(t, models.QualityHigh, Quality(0.81))
	assert.Equal(t, models.QualityMedium, Quality(0.8))
	assert.Equal(t, models.QualityMedium, Quality(0.61))
	assert.Equal(t, models.QualityLow, Quality(0.6))
}

func TestScore_RiskKeywordsFromEntityNames(t *testing.T) {
	report := Score(
		textSuccess(0.9, 2),
		visionSuccess(0.9, true),
		nlpSuccess(
			models.Entity{Name: "Acme LLC", Type: models.EntityOrganization},
			models.Entity{Name: "License REVOKED", Type: models.EntityOther},
			models.Entity{Name: "Fraud Investigation Unit", Type: models.EntityOrganization},
		),
	)

	assert.Equal(t, []string{"License REVOKED", "Fraud Investigation Unit"}, report.RiskKeywordsFound)
	assert.False(t, report.ValidationChecks[models.CheckNoRiskKeywords])
	assert.Equal(t, 3, report.NLPEntityCount)
}

func TestScore_Ranges(t *testing.T) {
	confidences := []float64{-0.5, 0, 0.3, 0.7, 0.71, 1, 1.7}
	for _, doc := range confidences {
		for _, vis := range confidences {
			report := Score(textSuccess(doc, 1), visionSuccess(vis, vis > 0.5), nlpSuccess())
			require.GreaterOrEqual(t, report.FusionConfidence, 0.0)
			require.LessOrEqual(t, report.FusionConfidence, 1.0)
			require.GreaterOrEqual(t, report.ValidationScore, 0.0)
			require.LessOrEqual(t, report.ValidationScore, 1.0)
		}
	}
}

func TestScore_Idempotent(t *testing.T) {
	text := textSuccess(0.82, 2)
	vision := visionSuccess(0.7, true)
	nlp := nlpSuccess(models.Entity{Name: "Main Street", Type: models.EntityLocation})

	assert.Equal(t, Score(text, vision, nlp), Score(text, vision, nlp))
}

func TestScore_MonotonicInAnalyzerConfidence(t *testing.T) {
	nlp := nlpSuccess(models.Entity{Name: "Acme", Type: models.EntityOrganization})

	prev := -1.0
	for doc := 0.0; doc <= 1.0; doc += 0.05 {
		got := Score(textSuccess(doc, 1), visionSuccess(0.5, true), nlp).FusionConfidence
		assert.GreaterOrEqual(t, got, prev, "doc=%v", doc)
		prev = got
	}

	prev = -1.0
	for vis := 0.0; vis <= 1.0; vis += 0.05 {
		got := Score(textSuccess(0.5, 1), visionSuccess(vis, true), nlp).FusionConfidence
		assert.GreaterOrEqual(t, got, prev, "vision=%v", vis)
		prev = got
	}
}

func TestVisionAuthenticity(t *testing.T) {
	long := make([]rune, 101)
	for i := range long {
		long[i] = 'x'
	}

	tests := []struct {
		name     string
		signals  models.VisualSignals
		text     string
		expected float64
	}{
		{"nothing detected", models.VisualSignals{}, "", 0},
		{"text only", models.VisualSignals{TextDetected: true}, "short", 0.4},
		{"text and objects", models.VisualSignals{TextDetected: true, ObjectsDetected: 2}, "", 0.6},
		{"text objects logo", models.VisualSignals{TextDetected: true, ObjectsDetected: 1, LogosDetected: 1}, "", 0.9},
		{"everything capped", models.VisualSignals{TextDetected: true, ObjectsDetected: 1, LogosDetected: 3}, string(long), 1.0},
		{"faces do not count", models.VisualSignals{FacesDetected: 4}, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, VisionAuthenticity(tt.signals, tt.text))
		})
	}
}
