// Package errors provides standardized error handling for the intake engine.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Completion-service failures. Both are recovered inside the engine by
	// heuristic fallbacks and never reach the conversation surface.
	ErrCodeCompletionUnavailable ErrorCode = "COMPLETION_SERVICE_UNAVAILABLE"
	ErrCodeCompletionTimeout     ErrorCode = "COMPLETION_TIMEOUT"

	// Classification payload did not parse or failed schema validation.
	ErrCodeClassificationMalformed ErrorCode = "CLASSIFICATION_MALFORMED"

	// Payment-policy lookup failed; the engine defaults to no payment required.
	ErrCodePolicyLookupFailed ErrorCode = "POLICY_LOOKUP_FAILED"

	// Anything caught at the engine boundary.
	ErrCodeTurnProcessingFailed ErrorCode = "TURN_PROCESSING_FAILED"
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

// NewCompletionUnavailableError creates a retryable completion-service error.
func NewCompletionUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCompletionUnavailable,
		Message:   "Completion service request failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCompletionTimeoutError creates a retryable completion-service timeout error.
func NewCompletionTimeoutError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCompletionTimeout,
		Message:   "Completion service call timed out",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewClassificationMalformedError creates a non-retryable classification error.
// The router recovers from it with the keyword ladder.
func NewClassificationMalformedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassificationMalformed,
		Message:   "Classification response not valid JSON or schema mismatch",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPolicyLookupFailedError creates a retryable policy lookup error.
func NewPolicyLookupFailedError(organizationID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePolicyLookupFailed,
		Message:   "Payment policy lookup failed",
		Details:   fmt.Sprintf("organizationId: %s, error: %s", organizationID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTurnProcessingFailedError creates a non-retryable engine boundary error.
func NewTurnProcessingFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTurnProcessingFailed,
		Message:   "Unexpected error while processing turn",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// GetErrorCategory groups codes for logging and metrics.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeCompletionUnavailable, ErrCodeCompletionTimeout:
		return "external_service"
	case ErrCodeClassificationMalformed:
		return "malformed_response"
	case ErrCodePolicyLookupFailed:
		return "config_lookup"
	default:
		return "internal"
	}
}
