// internal/common/validation/schemas.go
package validation

// Job variable schemas for the onboarding workers. Business rules that need
// more than structure (decision thresholds, state checks) live in the domain
// packages.

const analyzeDocumentSchema = `{
  "type": "object",
  "required": ["documentType", "mimeType", "documentContent"],
  "properties": {
    "applicationId":   {"type": "string"},
    "documentType":    {"type": "string", "minLength": 1, "maxLength": 64},
    "fileName":        {"type": "string", "maxLength": 255},
    "mimeType":        {"type": "string", "minLength": 1},
    "documentContent": {"type": "string", "minLength": 1}
  }
}`

const submitApplicationSchema = `{
  "type": "object",
  "required": ["personalData", "businessData"],
  "properties": {
    "personalData": {
      "type": "object",
      "required": ["firstName", "lastName", "email"],
      "properties": {
        "firstName":   {"type": "string", "minLength": 1, "maxLength": 100},
        "lastName":    {"type": "string", "minLength": 1, "maxLength": 100},
        "email":       {"type": "string", "format": "email"},
        "phone":       {"type": "string", "pattern": "^\\+?[0-9 ()-]{7,20}$"},
        "dateOfBirth": {"type": "string"},
        "address":     {"type": "string"}
      }
    },
    "businessData": {
      "type": "object",
      "required": ["businessName"],
      "properties": {
        "businessName":            {"type": "string", "minLength": 1, "maxLength": 200},
        "businessType":            {"type": "string"},
        "industry":                {"type": "string"},
        "annualRevenue":           {"type": ["string", "number", "null"]},
        "monthlyProcessingVolume": {"type": ["string", "number", "null"]},
        "taxId":                   {"type": "string"},
        "address":                 {"type": "string"},
        "website":                 {"type": "string"}
      }
    },
    "documentFusionReports": {
      "type": ["object", "null"],
      "propertyNames": {"minLength": 1},
      "additionalProperties": {
        "type": "object",
        "required": ["fusionConfidence"],
        "properties": {
          "fusionConfidence": {"type": "number", "minimum": 0, "maximum": 1},
          "validationScore":  {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    }
  }
}`

const applicationRefSchema = `{
  "type": "object",
  "required": ["applicationId"],
  "properties": {
    "applicationId": {"type": "string", "minLength": 1}
  }
}`

const sendNotificationSchema = `{
  "type": "object",
  "required": ["applicationId", "notificationType"],
  "properties": {
    "applicationId":    {"type": "string", "minLength": 1},
    "notificationType": {"type": "string", "enum": ["approval", "denial", "contract_ready"]}
  }
}`

const searchApplicationsSchema = `{
  "type": "object",
  "properties": {
    "text":         {"type": "string", "maxLength": 200},
    "statuses":     {"type": "array", "items": {"type": "string", "enum": ["SUBMITTED", "APPROVED", "DENIED", "CONTRACTED"]}},
    "riskLevels":   {"type": "array", "items": {"type": "string", "enum": ["LOW", "MEDIUM", "HIGH"]}},
    "minRiskScore": {"type": "integer", "minimum": 0, "maximum": 100},
    "maxRiskScore": {"type": "integer", "minimum": 0, "maximum": 100},
    "from":         {"type": "integer", "minimum": 0},
    "size":         {"type": "integer", "minimum": 1, "maximum": 100}
  }
}`

var (
	AnalyzeDocument    = MustCompile("analyze-document", analyzeDocumentSchema)
	SubmitApplication  = MustCompile("submit-application", submitApplicationSchema)
	ApplicationRef     = MustCompile("application-ref", applicationRefSchema)
	SendNotification   = MustCompile("send-decision-notification", sendNotificationSchema)
	SearchApplications = MustCompile("search-applications", searchApplicationsSchema)
)
