// internal/common/errors/errors.go

// Package errors provides the standardized error taxonomy shared by all
// advisor components.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeNoMatchFound      ErrorCode = "NO_MATCH_FOUND"
	ErrCodeCatalogLoad       ErrorCode = "CATALOG_LOAD_ERROR"
	ErrCodeGenerationBackend ErrorCode = "GENERATION_BACKEND_ERROR"
	ErrCodePersistence       ErrorCode = "PERSISTENCE_ERROR"
	ErrCodeSessionConflict   ErrorCode = "SESSION_CONFLICT"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error. Cause keeps
// the wrapped failure reachable for errors.Is/As through Unwrap.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError reports rejected user input. Non-retryable: the
// caller re-prompts instead.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidation,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoMatchFoundError reports that matching produced zero rows even
// after the widened pass.
func NewNoMatchFoundError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoMatchFound,
		Message:   "No careers matched the given answers",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogLoadError reports an unreadable or invalid catalog source.
// Fatal at startup, surfaced on reload.
func NewCatalogLoadError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogLoad,
		Message:   "Career catalog could not be loaded",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationBackendError reports an AI backend failure or timeout.
// The cause stays unwrappable so retry policies can classify it.
func NewGenerationBackendError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationBackend,
		Message:   "Generation backend request failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// NewPersistenceError reports a store read or write failure.
func NewPersistenceError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistence,
		Message:   "Persistence operation failed",
		Details:   fmt.Sprintf("op: %s, error: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// NewSessionConflictError reports a stale session version token. The
// stored session wins; the in-flight result is discarded.
func NewSessionConflictError(userID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionConflict,
		Message:   "Session changed while operation was in flight",
		Details:   fmt.Sprintf("userId: %s", userID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetCode extracts the ErrorCode from any error, INTERNAL_ERROR when
// the error is not a StandardError.
func GetCode(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// GetRetryCount returns the recommended retry attempts per code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodePersistence:
		return 3
	case ErrCodeGenerationBackend:
		return 2
	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "MATCH"):
		return "MATCHING"
	case strings.Contains(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.Contains(codeStr, "GENERATION"):
		return "AI"
	case strings.Contains(codeStr, "PERSISTENCE"):
		return "DATABASE"
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	default:
		return "OTHER"
	}
}
