// internal/fusion/scorer.go
package fusion

import (
	"math"
	"strings"

	"merchant-onboarding/internal/models"
)

const (
	weightDocument   = 0.4
	weightVision     = 0.3
	weightValidation = 0.3

	autoApproveConfidence = 0.85
	autoApproveValidation = 0.8
	humanReviewConfidence = 0.60

	highQualityAbove   = 0.8
	mediumQualityAbove = 0.6

	crossValidationPassScore = 0.7

	textQualityAbove  = 0.7
	authenticityAbove = 0.6
)

var riskKeywords = []string{"fraud", "illegal", "violation", "suspended", "revoked"}

// Score fuses the three analyzer results for one document into a report.
// A Failure (or nil) result contributes zero confidence and no entities. A
// failed entity analyzer cannot vouch for the absence of risk keywords, so
// every check is false when all three analyzers fail.
func Score(text, vision, nlp models.AnalyzerResult) models.FusionReport {
	textOK := models.Succeeded(text)
	visionOK := models.Succeeded(vision)
	nlpOK := models.Succeeded(nlp)

	var docConfidence, visionScore float64
	var textEntityCount int
	var textDetected bool
	var nlpEntities []models.Entity

	if textOK != nil {
		docConfidence = clamp01(textOK.Confidence)
		textEntityCount = len(textOK.Entities)
	}
	if visionOK != nil {
		visionScore = clamp01(visionOK.Confidence)
		textDetected = visionOK.Visual != nil && visionOK.Visual.TextDetected
	}
	if nlpOK != nil {
		nlpEntities = nlpOK.Entities
	}

	found := RiskKeywords(nlpEntities)

	checks := map[string]bool{
		models.CheckTextExtractionQuality:   docConfidence > textQualityAbove,
		models.CheckDocumentAuthenticity:    visionScore > authenticityAbove,
		models.CheckContentStructurePresent: textEntityCount >= 1,
		models.CheckVisualIntegrity:         textDetected,
		models.CheckBusinessEntitiesPresent: hasBusinessEntity(nlpEntities),
		models.CheckNoRiskKeywords:          nlpOK != nil && len(found) == 0,
	}

	passed := 0
	for _, ok := range checks {
		if ok {
			passed++
		}
	}
	validationScore := float64(passed) / float64(len(checks))

	fusion := round3(clamp01(weightDocument*docConfidence + weightVision*visionScore + weightValidation*validationScore))

	return models.FusionReport{
		DocumentAIConfidence:    round3(docConfidence),
		VisionAuthenticityScore: round3(visionScore),
		NLPEntityCount:          len(nlpEntities),
		RiskKeywordsFound:       found,
		ValidationChecks:        checks,
		ValidationScore:         round3(validationScore),
		FusionConfidence:        fusion,
		RecommendedAction:       Decide(fusion, validationScore),
		ProcessingQuality:       Quality(fusion),
		CrossValidationPassed:   validationScore >= crossValidationPassScore,
		AIAgreementScore:        round3(math.Abs(docConfidence - visionScore)),
	}
}

// Decide maps fusion and validation scores to an action. Thresholds are
// inclusive and evaluated in order.
func Decide(fusionConfidence, validationScore float64) models.RecommendedAction {
	switch {
	case fusionConfidence >= autoApproveConfidence && validationScore >= autoApproveValidation:
		return models.ActionAutoApprove
	case fusionConfidence >= humanReviewConfidence:
		return models.ActionHumanReview
	default:
		return models.ActionReject
	}
}

func Quality(fusionConfidence float64) models.ProcessingQuality {
	switch {
	case fusionConfidence > highQualityAbove:
		return models.QualityHigh
	case fusionConfidence > mediumQualityAbove:
		return models.QualityMedium
	default:
		return models.QualityLow
	}
}

// VisionAuthenticity scores raw visual detections: 0.4 for any text, 0.2 for
// any object, 0.3 for any logo and 0.1 when the detected text runs past 100
// characters, capped at 1.
func VisionAuthenticity(signals models.VisualSignals, detectedText string) float64 {
	score := 0.0
	if signals.TextDetected {
		score += 0.4
	}
	if signals.ObjectsDetected > 0 {
		score += 0.2
	}
	if signals.LogosDetected > 0 {
		score += 0.3
	}
	if len([]rune(detectedText)) > 100 {
		score += 0.1
	}
	return round3(math.Min(score, 1.0))
}

// RiskKeywords returns the names of entities that mention a risk term, in
// entity order.
func RiskKeywords(entities []models.Entity) []string {
	found := []string{}
	for _, e := range entities {
		name := strings.ToLower(e.Name)
		for _, kw := range riskKeywords {
			if strings.Contains(name, kw) {
				found = append(found, e.Name)
				break
			}
		}
	}
	return found
}

func hasBusinessEntity(entities []models.Entity) bool {
	for _, e := range entities {
		if e.Type == models.EntityOrganization || e.Type == models.EntityLocation {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
