// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Dialog / ordering errors. The dialog codes are recoverable: the
// conversation stays in its current stage and the customer is re-prompted.
const (
	ErrCodeUnresolvedItem             ErrorCode = "UNRESOLVED_ITEM"
	ErrCodeAmbiguousBranchChoice      ErrorCode = "AMBIGUOUS_BRANCH_CHOICE"
	ErrCodeNoServiceableBranch        ErrorCode = "NO_SERVICEABLE_BRANCH"
	ErrCodeLowConfidenceTranscription ErrorCode = "LOW_CONFIDENCE_TRANSCRIPTION"
	ErrCodeInvalidMessagePayload      ErrorCode = "INVALID_MESSAGE_PAYLOAD"

	// Assembler preconditions; never surfaced to customers.
	ErrCodeIncompleteDraft  ErrorCode = "INCOMPLETE_DRAFT"
	ErrCodeNoBranchSelected ErrorCode = "NO_BRANCH_SELECTED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeSessionLoadFailed        ErrorCode = "SESSION_LOAD_FAILED"
	ErrCodeSessionSaveFailed        ErrorCode = "SESSION_SAVE_FAILED"

	ErrCodeOrderPersistFailed ErrorCode = "ORDER_PERSIST_FAILED"
	ErrCodeDuplicateOrder     ErrorCode = "DUPLICATE_ORDER"

	ErrCodeMenuRefreshFailed    ErrorCode = "MENU_REFRESH_FAILED"
	ErrCodeMenuValidationFailed ErrorCode = "MENU_VALIDATION_FAILED"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchIndexFailed             ErrorCode = "SEARCH_INDEX_FAILED"

	ErrCodeGeocodingFailed    ErrorCode = "GEOCODING_FAILED"
	ErrCodeGeocodingAmbiguous ErrorCode = "GEOCODING_AMBIGUOUS"

	ErrCodeTranscriptionFailed  ErrorCode = "TRANSCRIPTION_FAILED"
	ErrCodeTranscriptionTimeout ErrorCode = "TRANSCRIPTION_TIMEOUT"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
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

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
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

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewUnresolvedItemError creates a non-retryable dialog clarification error.
func NewUnresolvedItemError(phrase string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnresolvedItem,
		Message:   "Item phrase did not match the menu",
		Details:   fmt.Sprintf("phrase: %s", phrase),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAmbiguousBranchChoiceError creates a non-retryable disambiguation error.
func NewAmbiguousBranchChoiceError(count int) *StandardError {
	return &StandardError{
		Code:      ErrCodeAmbiguousBranchChoice,
		Message:   "Multiple branches tie within the choice margin",
		Details:   fmt.Sprintf("candidates: %d", count),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoServiceableBranchError creates a non-retryable delivery coverage error.
func NewNoServiceableBranchError(lat, lon float64) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoServiceableBranch,
		Message:   "No branch delivers to the given location",
		Details:   fmt.Sprintf("lat: %f, lon: %f", lat, lon),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLowConfidenceTranscriptionError creates a non-retryable transcript quality error.
func NewLowConfidenceTranscriptionError(confidence float64) *StandardError {
	return &StandardError{
		Code:      ErrCodeLowConfidenceTranscription,
		Message:   "Voice transcript confidence below threshold",
		Details:   fmt.Sprintf("confidence: %f", confidence),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidMessagePayloadError creates a non-retryable payload error.
func NewInvalidMessagePayloadError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidMessagePayload,
		Message:   "Inbound message payload failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionLoadFailedError creates a retryable session store error.
func NewSessionLoadFailedError(customerID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionLoadFailed,
		Message:   "Conversation session load failed",
		Details:   fmt.Sprintf("customerId: %s, error: %s", customerID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionSaveFailedError creates a retryable session store error.
func NewSessionSaveFailedError(customerID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionSaveFailed,
		Message:   "Conversation session save failed",
		Details:   fmt.Sprintf("customerId: %s, error: %s", customerID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewOrderPersistFailedError creates a retryable order insert error.
func NewOrderPersistFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOrderPersistFailed,
		Message:   "Order insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateOrderError creates a non-retryable duplicate order error.
func NewDuplicateOrderError(orderID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateOrder,
		Message:   "Order already persisted",
		Details:   fmt.Sprintf("orderId: %s", orderID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMenuRefreshFailedError creates a retryable menu load error.
func NewMenuRefreshFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMenuRefreshFailed,
		Message:   "Menu catalog refresh failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMenuValidationFailedError creates a non-retryable menu schema error.
func NewMenuValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMenuValidationFailed,
		Message:   "Menu payload failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewElasticsearchConnectionFailedError creates a retryable Elasticsearch connection error.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeElasticsearchConnectionFailed,
		Message:   "Elasticsearch connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchIndexFailedError creates a retryable search indexing error.
func NewSearchIndexFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchIndexFailed,
		Message:   "Search index update failed",
		Details:   fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewGeocodingFailedError creates a retryable geocoding error.
func NewGeocodingFailedError(address string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGeocodingFailed,
		Message:   "Address geocoding failed",
		Details:   fmt.Sprintf("address: %s, error: %s", address, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewGeocodingAmbiguousError creates a non-retryable ambiguous address error.
func NewGeocodingAmbiguousError(address string, candidates int) *StandardError {
	return &StandardError{
		Code:      ErrCodeGeocodingAmbiguous,
		Message:   "Address resolved to multiple locations",
		Details:   fmt.Sprintf("address: %s, candidates: %d", address, candidates),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTranscriptionFailedError creates a retryable transcription error.
func NewTranscriptionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTranscriptionFailed,
		Message:   "Voice transcription API error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTranscriptionTimeoutError creates a retryable transcription timeout error.
func NewTranscriptionTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeTranscriptionTimeout,
		Message:   "Voice transcription API timeout",
		Details:   "API call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes (same as internal).
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeUnresolvedItem:                "UNRESOLVED_ITEM",
	ErrCodeAmbiguousBranchChoice:         "AMBIGUOUS_BRANCH_CHOICE",
	ErrCodeNoServiceableBranch:           "NO_SERVICEABLE_BRANCH",
	ErrCodeLowConfidenceTranscription:    "LOW_CONFIDENCE_TRANSCRIPTION",
	ErrCodeInvalidMessagePayload:         "INVALID_MESSAGE_PAYLOAD",
	ErrCodeIncompleteDraft:               "INCOMPLETE_DRAFT",
	ErrCodeNoBranchSelected:              "NO_BRANCH_SELECTED",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:          "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:                  "QUERY_TIMEOUT",
	ErrCodeSessionLoadFailed:             "SESSION_LOAD_FAILED",
	ErrCodeSessionSaveFailed:             "SESSION_SAVE_FAILED",
	ErrCodeOrderPersistFailed:            "ORDER_PERSIST_FAILED",
	ErrCodeDuplicateOrder:                "DUPLICATE_ORDER",
	ErrCodeMenuRefreshFailed:             "MENU_REFRESH_FAILED",
	ErrCodeMenuValidationFailed:          "MENU_VALIDATION_FAILED",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeSearchIndexFailed:             "SEARCH_INDEX_FAILED",
	ErrCodeGeocodingFailed:               "GEOCODING_FAILED",
	ErrCodeGeocodingAmbiguous:            "GEOCODING_AMBIGUOUS",
	ErrCodeTranscriptionFailed:           "TRANSCRIPTION_FAILED",
	ErrCodeTranscriptionTimeout:          "TRANSCRIPTION_TIMEOUT",
	ErrCodeNotificationSendFailed:        "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeSessionLoadFailed,
		ErrCodeSessionSaveFailed,
		ErrCodeOrderPersistFailed,
		ErrCodeMenuRefreshFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchIndexFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeTranscriptionFailed:
		return 3 // Retryable technical errors

	case ErrCodeQueryTimeout,
		ErrCodeGeocodingFailed,
		ErrCodeTranscriptionTimeout:
		return 2 // Partial retry for timeouts

	default:
		return 0 // Dialog/business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SESSION") || strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "MENU"):
		return "MENU"
	case strings.Contains(codeStr, "ORDER"):
		return "ORDER"
	case strings.Contains(codeStr, "GEOCODING") || strings.Contains(codeStr, "BRANCH"):
		return "LOCATION"
	case strings.Contains(codeStr, "TRANSCRIPTION"):
		return "VOICE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "ITEM") || strings.Contains(codeStr, "DRAFT") || strings.Contains(codeStr, "PAYLOAD"):
		return "DIALOG"
	default:
		return "OTHER"
	}
}
