// internal/workers/onboarding/submit-application/models.go
package submitapplication

import (
	"merchant-onboarding/internal/models"
	"merchant-onboarding/internal/terms"
)

type Input struct {
	PersonalData          models.PersonalData            `json:"personalData"`
	BusinessData          models.BusinessData            `json:"businessData"`
	DocumentFusionReports map[string]models.FusionReport `json:"documentFusionReports"`
}

type Output struct {
	ApplicationID  string                   `json:"applicationId"`
	Status         models.ApplicationStatus `json:"status"`
	Approved       bool                     `json:"approved"`
	RiskScore      int                      `json:"riskScore"`
	RiskLevel      models.RiskLevel         `json:"riskLevel"`
	DecisionReason string                   `json:"decisionReason"`
	Terms          *models.Terms            `json:"terms,omitempty"`
	TermsDisplay   *terms.Formatted         `json:"termsDisplay,omitempty"`
	CreatedAt      string                   `json:"createdAt"` // ISO 8601
}
