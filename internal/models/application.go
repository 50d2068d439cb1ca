// internal/models/application.go
package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

type ApplicationStatus string

const (
	StatusSubmitted  ApplicationStatus = "SUBMITTED"
	StatusApproved   ApplicationStatus = "APPROVED"
	StatusDenied     ApplicationStatus = "DENIED"
	StatusContracted ApplicationStatus = "CONTRACTED"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

type Application struct {
	ApplicationID         string                  `json:"applicationId"`
	PersonalData          PersonalData            `json:"personalData"`
	BusinessData          BusinessData            `json:"businessData"`
	DocumentFusionReports map[string]FusionReport `json:"documentFusionReports"`
	RiskScore             int                     `json:"riskScore"`
	RiskLevel             RiskLevel               `json:"riskLevel"`
	Status                ApplicationStatus       `json:"status"`
	DecisionReason        string                  `json:"decisionReason,omitempty"`
	Terms                 *Terms                  `json:"terms,omitempty"`
	ContractID            string                  `json:"contractId,omitempty"`
	CreatedAt             time.Time               `json:"createdAt"`
	UpdatedAt             time.Time               `json:"updatedAt"`
	ProcessedAt           *time.Time              `json:"processedAt,omitempty"`
	ContractSignedAt      *time.Time              `json:"contractSignedAt,omitempty"`
}

// Clone returns a copy that shares no mutable state with a.
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}
	c := *a
	if a.DocumentFusionReports != nil {
		c.DocumentFusionReports = make(map[string]FusionReport, len(a.DocumentFusionReports))
		for k, v := range a.DocumentFusionReports {
			c.DocumentFusionReports[k] = v
		}
	}
	if a.Terms != nil {
		t := *a.Terms
		c.Terms = &t
	}
	if a.ProcessedAt != nil {
		t := *a.ProcessedAt
		c.ProcessedAt = &t
	}
	if a.ContractSignedAt != nil {
		t := *a.ContractSignedAt
		c.ContractSignedAt = &t
	}
	return &c
}

type PersonalData struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Address     string `json:"address,omitempty"`
}

func (p PersonalData) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type BusinessData struct {
	BusinessName            string        `json:"businessName"`
	BusinessType            string        `json:"businessType,omitempty"`
	Industry                string        `json:"industry"`
	AnnualRevenue           NumericString `json:"annualRevenue"`
	MonthlyProcessingVolume NumericString `json:"monthlyProcessingVolume"`
	TaxID                   string        `json:"taxId,omitempty"`
	Address                 string        `json:"address,omitempty"`
	Website                 string        `json:"website,omitempty"`
}

// NumericString holds a declared amount exactly as the applicant entered it.
// It decodes from either a JSON string or a JSON number; parsing is left to
// the scorers so malformed input degrades instead of failing the request.
type NumericString string

func (n *NumericString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumericString(s)
		return nil
	}
	*n = NumericString(data)
	return nil
}
