// internal/workers/onboarding/get-application-status/models.go
package getapplicationstatus

import (
	"merchant-onboarding/internal/models"
	"merchant-onboarding/internal/terms"
)

type Input struct {
	ApplicationID string `json:"applicationId"`
}

type Output struct {
	ApplicationID    string                   `json:"applicationId"`
	MerchantName     string                   `json:"merchantName"`
	Status           models.ApplicationStatus `json:"status"`
	RiskScore        int                      `json:"riskScore"`
	RiskLevel        models.RiskLevel         `json:"riskLevel"`
	DecisionReason   string                   `json:"decisionReason,omitempty"`
	Terms            *models.Terms            `json:"terms,omitempty"`
	TermsDisplay     *terms.Formatted         `json:"termsDisplay,omitempty"`
	ContractID       string                   `json:"contractId,omitempty"`
	DocumentCount    int                      `json:"documentCount"`
	CreatedAt        string                   `json:"createdAt"`
	UpdatedAt        string                   `json:"updatedAt"`
	ProcessedAt      string                   `json:"processedAt,omitempty"`
	ContractSignedAt string                   `json:"contractSignedAt,omitempty"`
}
