// internal/notification/templates.go
package notification

import (
	"text/template"

	"merchant-onboarding/internal/models"
)

type messageTemplate struct {
	subject *template.Template
	body    *template.Template
	sms     *template.Template
}

var templateSources = map[models.NotificationType][3]string{
	models.NotificationApproval: {
		`Your merchant application {{.ApplicationID}} has been approved`,
		`Hello {{.Name}},

Good news: the merchant account application for {{.BusinessName}} has been approved.

Your terms:
  Processing rate:       {{.Terms.Rate}} + {{.Terms.PerTransactionFee}} per transaction
  Daily limit:           {{.Terms.DailyLimit}}
  Monthly volume limit:  {{.Terms.MonthlyVolumeLimit}}
  Settlement:            {{.Terms.SettlementDelay}}
  Contract length:       {{.Terms.ContractLength}}

Projected monthly revenue: {{.Terms.ProjectedMonthlyRevenue}}
Projected monthly fees:    {{.Terms.ProjectedFees}}

Your contract will be prepared next.
`,
		`{{.BusinessName}}: merchant application {{.ApplicationID}} approved at {{.Terms.Rate}}. Watch your email for contract details.`,
	},
	models.NotificationDenial: {
		`Update on your merchant application {{.ApplicationID}}`,
		`Hello {{.Name}},

Thank you for applying for a merchant account for {{.BusinessName}}. After review we are unable to approve the application at this time.

Reason: {{.Reason}}

You are welcome to submit a new application with updated documents.
`,
		`{{.BusinessName}}: merchant application {{.ApplicationID}} was not approved. Details were sent by email.`,
	},
	models.NotificationContractReady: {
		`Contract {{.ContractID}} is ready for signature`,
		`Hello {{.Name}},

The merchant agreement {{.ContractID}} for {{.BusinessName}} is ready.

Next steps:
{{range .NextSteps}}  - {{.}}
{{end}}`,
		`{{.BusinessName}}: contract {{.ContractID}} is ready for signature.`,
	},
}

func parseTemplates() (map[models.NotificationType]messageTemplate, error) {
	out := make(map[models.NotificationType]messageTemplate, len(templateSources))
	for typ, src := range templateSources {
		var parsed [3]*template.Template
		for i, text := range src {
			t, err := template.New(string(typ)).Option("missingkey=zero").Parse(text)
			if err != nil {
				return nil, err
			}
			parsed[i] = t
		}
		out[typ] = messageTemplate{subject: parsed[0], body: parsed[1], sms: parsed[2]}
	}
	return out, nil
}
