// internal/workers/onboarding/issue-contract/models.go
package issuecontract

import (
	"merchant-onboarding/internal/models"
	"merchant-onboarding/internal/terms"
)

type Input struct {
	ApplicationID string `json:"applicationId"`
}

type Output struct {
	ContractID    string                   `json:"contractId"`
	ApplicationID string                   `json:"applicationId"`
	MerchantName  string                   `json:"merchantName"`
	Status        models.ApplicationStatus `json:"status"`
	Terms         *models.Terms            `json:"terms"`
	TermsDisplay  *terms.Formatted         `json:"termsDisplay,omitempty"`
	SignedAt      string                   `json:"signedAt"` // ISO 8601
	NextSteps     []string                 `json:"nextSteps"`
}
