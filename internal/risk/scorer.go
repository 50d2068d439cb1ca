// internal/risk/scorer.go
package risk

import (
	"math"
	"strconv"
	"strings"

	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/models"
)

const (
	baseScore        = 50
	approvalMinScore = 70
	lowRiskMinScore  = 80
	mediumMinScore   = 60
	maxFusionBonus   = 30
	industryPenalty  = 15
	industryBonus    = 10
)

var (
	highRiskIndustries = []string{"cryptocurrency", "gambling", "adult"}
	lowRiskIndustries  = []string{"professional services", "retail", "technology"}
)

type revenueTier struct {
	above float64
	bonus int
}

var (
	annualRevenueTiers = []revenueTier{
		{above: 1_000_000, bonus: 20},
		{above: 500_000, bonus: 15},
		{above: 100_000, bonus: 10},
	}
	monthlyVolumeTiers = []revenueTier{
		{above: 100_000, bonus: 10},
		{above: 50_000, bonus: 5},
	}
)

// Scorer turns declared business data and document fusion results into a
// 0-100 risk score. Higher is safer.
type Scorer struct {
	logger logger.Logger
}

func NewScorer(log logger.Logger) *Scorer {
	return &Scorer{logger: logger.Component(log, "risk")}
}

// Score never fails: malformed amounts contribute nothing and are logged.
func (s *Scorer) Score(business models.BusinessData, reports map[string]models.FusionReport) int {
	score := baseScore

	if revenue, ok := s.parseAmount("annualRevenue", business.AnnualRevenue); ok {
		score += tierBonus(annualRevenueTiers, revenue)
	}
	if volume, ok := s.parseAmount("monthlyProcessingVolume", business.MonthlyProcessingVolume); ok {
		score += tierBonus(monthlyVolumeTiers, volume)
	}

	if len(reports) > 0 {
		var sum float64
		for _, r := range reports {
			sum += unit(r.FusionConfidence)
		}
		avg := sum / float64(len(reports))
		score += int(math.Round(avg * maxFusionBonus))
	}

	score += IndustryAdjustment(business.Industry)

	return clamp(score)
}

// Level derives the risk band from a score.
func Level(score int) models.RiskLevel {
	switch {
	case score >= lowRiskMinScore:
		return models.RiskLow
	case score >= mediumMinScore:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

// Approved reports whether a score clears the approval cutoff. The cutoff
// sits between the MEDIUM and LOW bands.
func Approved(score int) bool {
	return score >= approvalMinScore
}

// IndustryAdjustment applies the high-risk penalty before the low-risk bonus.
func IndustryAdjustment(industry string) int {
	industry = strings.ToLower(industry)
	if industry == "" {
		return 0
	}
	for _, kw := range highRiskIndustries {
		if strings.Contains(industry, kw) {
			return -industryPenalty
		}
	}
	for _, kw := range lowRiskIndustries {
		if strings.Contains(industry, kw) {
			return industryBonus
		}
	}
	return 0
}

func (s *Scorer) parseAmount(field string, raw models.NumericString) (float64, bool) {
	v, ok := ParseAmount(string(raw))
	if !ok && strings.TrimSpace(string(raw)) != "" {
		s.logger.Warn("unparsable business amount ignored", map[string]interface{}{
			"field": field,
			"value": string(raw),
		})
	}
	return v, ok
}

// ParseAmount reads a declared dollar amount. Thousands separators and a
// leading "$" are accepted; empty, NaN and infinite values are not.
func ParseAmount(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func tierBonus(tiers []revenueTier, amount float64) int {
	for _, t := range tiers {
		if amount > t.above {
			return t.bonus
		}
	}
	return 0
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// unit bounds a report confidence to [0, 1]; NaN counts as 0.
func unit(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
