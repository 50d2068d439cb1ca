// internal/workers/onboarding/search-applications/models.go
package searchapplications

import "merchant-onboarding/internal/repository"

type Input struct {
	Text         string   `json:"text"`
	Statuses     []string `json:"statuses"`
	RiskLevels   []string `json:"riskLevels"`
	MinRiskScore *int     `json:"minRiskScore"`
	MaxRiskScore *int     `json:"maxRiskScore"`
	From         int      `json:"from"`
	Size         int      `json:"size"`
}

type Output struct {
	Total        int64                            `json:"total"`
	Applications []repository.ApplicationDocument `json:"applications"`
	Took         int64                            `json:"took"` // milliseconds
}
