// Package errors provides standardized error handling for BPMN workflow integration
// and the HTTP surface.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidPayload      ErrorCode = "INVALID_PAYLOAD"
	ErrCodeInvalidVariantID    ErrorCode = "INVALID_VARIANT_ID"
	ErrCodeMalformedDescriptor ErrorCode = "MALFORMED_DESCRIPTOR"
	ErrCodeUnknownProductType  ErrorCode = "UNKNOWN_PRODUCT_TYPE"
	ErrCodeUnresolvedVariant   ErrorCode = "UNRESOLVED_VARIANT"

	ErrCodeUpstreamUnavailable     ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrCodeUpstreamInvalidResponse ErrorCode = "UPSTREAM_INVALID_RESPONSE"
	ErrCodeUpstreamTimeout         ErrorCode = "UPSTREAM_TIMEOUT"

	ErrCodeCatalogLookupFailed ErrorCode = "CATALOG_LOOKUP_FAILED"
	ErrCodeNotificationFailed  ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeWorkflowEngine      ErrorCode = "WORKFLOW_ENGINE_UNAVAILABLE"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
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
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is matches any StandardError carrying the same code, so the package-level
// sentinels work with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidPayload      = &StandardError{Code: ErrCodeInvalidPayload}
	ErrInvalidVariantID    = &StandardError{Code: ErrCodeInvalidVariantID}
	ErrMalformedDescriptor = &StandardError{Code: ErrCodeMalformedDescriptor}
	ErrUnknownProductType  = &StandardError{Code: ErrCodeUnknownProductType}
	ErrUnresolvedVariant   = &StandardError{Code: ErrCodeUnresolvedVariant}
	ErrCatalogLookupFailed = &StandardError{Code: ErrCodeCatalogLookupFailed}
)

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

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidPayloadError creates a non-retryable request shape error.
func NewInvalidPayloadError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPayload,
		Message:   "Request payload is missing required fields",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidVariantIDError creates a non-retryable error for a variant id
// that fails the format check.
func NewInvalidVariantIDError(variantID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidVariantID,
		Message:   "Variant id is not in an accepted format",
		Details:   fmt.Sprintf("variantId: %q", variantID),
		Retryable: false,
		Metadata:  map[string]interface{}{"variantId": variantID},
		Timestamp: time.Now().UTC(),
	}
}

func NewMalformedDescriptorError(descriptor string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedDescriptor,
		Message:   "Item descriptor cannot be split into product type, size and color",
		Details:   fmt.Sprintf("descriptor: %q", descriptor),
		Retryable: false,
		Metadata:  map[string]interface{}{"descriptor": descriptor},
		Timestamp: time.Now().UTC(),
	}
}

func NewUnknownProductTypeError(productType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownProductType,
		Message:   "Product type has no catalog mapping",
		Details:   fmt.Sprintf("productType: %q", productType),
		Retryable: false,
		Metadata:  map[string]interface{}{"productType": productType},
		Timestamp: time.Now().UTC(),
	}
}

// NewUnresolvedVariantError carries the descriptor and product id so operators
// can repair catalog data without re-running the lookup.
func NewUnresolvedVariantError(descriptor, productID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnresolvedVariant,
		Message:   "No catalog variant matches the item descriptor",
		Details:   fmt.Sprintf("descriptor: %q, productId: %s", descriptor, productID),
		Retryable: false,
		Metadata: map[string]interface{}{
			"descriptor": descriptor,
			"productId":  productID,
		},
		Timestamp: time.Now().UTC(),
	}
}

func NewUpstreamUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamUnavailable,
		Message:   "Shipping rate provider unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewUpstreamInvalidResponseError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamInvalidResponse,
		Message:   "Shipping rate provider returned an unusable response",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewUpstreamTimeoutError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamTimeout,
		Message:   "Shipping rate provider timeout",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogLookupFailedError creates a retryable catalog storage error.
func NewCatalogLookupFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogLookupFailed,
		Message:   "Catalog lookup failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationFailedError creates a retryable notification send error.
func NewNotificationFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationFailed,
		Message:   "Operator notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWorkflowEngineError wraps a failed Zeebe gateway command.
func NewWorkflowEngineError(operation string, err error, retryable bool) *StandardError {
	return &StandardError{
		Code:      ErrCodeWorkflowEngine,
		Message:   "Workflow engine command failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: retryable,
		Metadata:  map[string]interface{}{"operation": operation},
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidPayload:          "INVALID_PAYLOAD",
	ErrCodeInvalidVariantID:        "INVALID_VARIANT_ID",
	ErrCodeMalformedDescriptor:     "MALFORMED_DESCRIPTOR",
	ErrCodeUnknownProductType:      "UNKNOWN_PRODUCT_TYPE",
	ErrCodeUnresolvedVariant:       "UNRESOLVED_VARIANT",
	ErrCodeUpstreamUnavailable:     "UPSTREAM_UNAVAILABLE",
	ErrCodeUpstreamInvalidResponse: "UPSTREAM_INVALID_RESPONSE",
	ErrCodeUpstreamTimeout:         "UPSTREAM_TIMEOUT",
	ErrCodeCatalogLookupFailed:     "CATALOG_LOOKUP_FAILED",
	ErrCodeNotificationFailed:      "NOTIFICATION_SEND_FAILED",
	ErrCodeWorkflowEngine:          "WORKFLOW_ENGINE_UNAVAILABLE",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCatalogLookupFailed,
		ErrCodeNotificationFailed,
		ErrCodeUpstreamUnavailable,
		ErrCodeWorkflowEngine:
		return 3

	case ErrCodeUpstreamTimeout,
		ErrCodeUpstreamInvalidResponse:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
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

// ==========================
// 5. Utility Functions
// ==========================

// AsStandard unwraps err into a StandardError, wrapping unknown errors as INTERNAL_ERROR.
func AsStandard(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// Code returns the error code carried by err, or INTERNAL_ERROR.
func Code(err error) ErrorCode {
	return AsStandard(err).Code
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "UPSTREAM"):
		return "UPSTREAM"
	case code == ErrCodeMalformedDescriptor ||
		code == ErrCodeUnknownProductType ||
		code == ErrCodeUnresolvedVariant:
		return "RESOLUTION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "CATALOG") ||
		strings.Contains(codeStr, "NOTIFICATION") ||
		strings.Contains(codeStr, "WORKFLOW"):
		return "SYSTEM"
	default:
		return "OTHER"
	}
}

// HTTPStatus maps an error to the status code the HTTP surface returns.
func HTTPStatus(err error) int {
	switch Code(err) {
	case ErrCodeInvalidPayload,
		ErrCodeInvalidVariantID,
		ErrCodeMalformedDescriptor,
		ErrCodeUnknownProductType:
		return http.StatusBadRequest
	case ErrCodeUnresolvedVariant:
		return http.StatusUnprocessableEntity
	case ErrCodeUpstreamUnavailable,
		ErrCodeUpstreamInvalidResponse:
		return http.StatusBadGateway
	case ErrCodeUpstreamTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeCatalogLookupFailed, ErrCodeWorkflowEngine:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Kind returns a stable lower-case identifier for err, used in response bodies
// and metric labels.
func Kind(err error) string {
	return strings.ToLower(string(Code(err)))
}
