// internal/common/errors/errors.go
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// Error codes
// ==========================

type ErrorCode string

const (
	ErrCodeAnalyzerUnavailable      ErrorCode = "ANALYZER_UNAVAILABLE"
	ErrCodeDocumentValidationFailed ErrorCode = "DOCUMENT_VALIDATION_FAILED"

	ErrCodeApplicationValidationFailed ErrorCode = "APPLICATION_VALIDATION_FAILED"
	ErrCodeApplicationNotFound         ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeInvalidStateTransition      ErrorCode = "INVALID_STATE_TRANSITION"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeDatabaseQueryFailed      ErrorCode = "DATABASE_QUERY_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeIndexNotFound     ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeParseError    ErrorCode = "PARSE_ERROR"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ==========================
// Standard error model
// ==========================

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key/value pair and returns e.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// BPMN error model
// ==========================

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// Constructors
// ==========================

func newStandardError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewAnalyzerUnavailableError(analyzer string, err error) *StandardError {
	return newStandardError(ErrCodeAnalyzerUnavailable,
		"Content analyzer unavailable",
		fmt.Sprintf("analyzer: %s, error: %s", analyzer, err.Error()), true)
}

func NewDocumentValidationFailedError(details string) *StandardError {
	return newStandardError(ErrCodeDocumentValidationFailed,
		"Document failed upload validation", details, false)
}

func NewApplicationValidationFailedError(details string) *StandardError {
	return newStandardError(ErrCodeApplicationValidationFailed,
		"Application data validation failed", details, false)
}

func NewApplicationNotFoundError(applicationID string) *StandardError {
	return newStandardError(ErrCodeApplicationNotFound,
		"Application not found",
		fmt.Sprintf("applicationId: %s", applicationID), false)
}

func NewInvalidStateTransitionError(applicationID, from, to string) *StandardError {
	return newStandardError(ErrCodeInvalidStateTransition,
		"Application is not in a state that allows this operation",
		fmt.Sprintf("applicationId: %s, from: %s, to: %s", applicationID, from, to), false)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newStandardError(ErrCodeDatabaseConnectionFailed,
		"Database connection error", err.Error(), true)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newStandardError(ErrCodeDatabaseInsertFailed,
		"Database insert operation failed", err.Error(), true)
}

func NewDatabaseQueryFailedError(operation string, err error) *StandardError {
	return newStandardError(ErrCodeDatabaseQueryFailed,
		"Database query execution error",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

func NewQueryTimeoutError(operation string) *StandardError {
	return newStandardError(ErrCodeQueryTimeout,
		"Database query timeout",
		fmt.Sprintf("operation: %s", operation), true)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newStandardError(ErrCodeSearchQueryFailed,
		"Elasticsearch query error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewIndexNotFoundError(indexName string) *StandardError {
	return newStandardError(ErrCodeIndexNotFound,
		"Elasticsearch index not found",
		fmt.Sprintf("indexName: %s", indexName), false)
}

func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newStandardError(ErrCodeNotificationSendFailed,
		"Notification delivery failed",
		fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()), true)
}

func NewParseError(err error) *StandardError {
	return newStandardError(ErrCodeParseError,
		"Job variables could not be parsed", err.Error(), false)
}

func NewInternalError(err error) *StandardError {
	return newStandardError(ErrCodeInternalError,
		"Unexpected error", err.Error(), false)
}

// ==========================
// BPMN mapping and retry policy
// ==========================

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeAnalyzerUnavailable:         "ANALYZER_UNAVAILABLE",
	ErrCodeDocumentValidationFailed:    "DOCUMENT_VALIDATION_FAILED",
	ErrCodeApplicationValidationFailed: "APPLICATION_VALIDATION_FAILED",
	ErrCodeApplicationNotFound:         "APPLICATION_NOT_FOUND",
	ErrCodeInvalidStateTransition:      "INVALID_STATE_TRANSITION",
	ErrCodeDatabaseConnectionFailed:    "DATABASE_CONNECTION_FAILED",
	ErrCodeDatabaseInsertFailed:        "DATABASE_INSERT_FAILED",
	ErrCodeDatabaseQueryFailed:         "DATABASE_QUERY_FAILED",
	ErrCodeQueryTimeout:                "QUERY_TIMEOUT",
	ErrCodeSearchQueryFailed:           "SEARCH_QUERY_FAILED",
	ErrCodeIndexNotFound:               "INDEX_NOT_FOUND",
	ErrCodeNotificationSendFailed:      "NOTIFICATION_SEND_FAILED",
	ErrCodeParseError:                  "PARSE_ERROR",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeDatabaseQueryFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeAnalyzerUnavailable:
		return 2

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "ANALYZER") || strings.Contains(codeStr, "DOCUMENT"):
		return "ANALYSIS"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "STATE") || strings.Contains(codeStr, "NOT_FOUND"):
		return "LIFECYCLE"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PARSE"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
