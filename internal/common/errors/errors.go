// Package errors provides the standardized error taxonomy for the template
// manager: validation failures, not-found, version conflicts, and store
// errors are distinguishable kinds so callers can choose between
// refetch-and-retry and abort.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeTemplateNotFound ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeVersionNotFound  ErrorCode = "VERSION_NOT_FOUND"

	ErrCodeVersionConflict ErrorCode = "VERSION_CONFLICT"

	ErrCodeTemplateValidationFailed ErrorCode = "TEMPLATE_VALIDATION_FAILED"
	ErrCodeInvalidFieldPath         ErrorCode = "INVALID_FIELD_PATH"
	ErrCodeInvalidChangeType        ErrorCode = "INVALID_CHANGE_TYPE"
	ErrCodeInvalidVersion           ErrorCode = "INVALID_VERSION"

	ErrCodeStoreFailed ErrorCode = "STORE_OPERATION_FAILED"
)

// StandardError is a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As chains.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// Constructors
// ==========================

// NewTemplateNotFoundError reports an unknown templateId.
func NewTemplateNotFoundError(templateID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "template not found",
		Details:   fmt.Sprintf("templateId: %s", templateID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewVersionNotFoundError reports a known template without the requested version.
func NewVersionNotFoundError(templateID, version string) *StandardError {
	return &StandardError{
		Code:      ErrCodeVersionNotFound,
		Message:   "template version not found",
		Details:   fmt.Sprintf("templateId: %s, version: %s", templateID, version),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewVersionConflictError reports a lost race on the latest-flag swap. The
// caller should refetch the latest version and retry.
func NewVersionConflictError(templateID, version string) *StandardError {
	return &StandardError{
		Code:      ErrCodeVersionConflict,
		Message:   "concurrent writer superseded this version",
		Details:   fmt.Sprintf("templateId: %s, supersededVersion: %s", templateID, version),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError reports critical validation errors that block
// persistence. The structured diagnostics travel alongside this error in the
// operation result, never inside it.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateValidationFailed,
		Message:   "template failed validation with critical errors",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidFieldPathError reports a field change addressed at an unknown path.
func NewInvalidFieldPathError(path string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidFieldPath,
		Message:   "field change path is not addressable",
		Details:   fmt.Sprintf("path: %s", path),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidChangeTypeError reports an unsupported change type.
func NewInvalidChangeTypeError(changeType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidChangeType,
		Message:   "unsupported change type",
		Details:   fmt.Sprintf("changeType: %s", changeType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidVersionError reports a malformed semantic version string.
func NewInvalidVersionError(version string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidVersion,
		Message:   "malformed semantic version",
		Details:   fmt.Sprintf("version: %s, error: %v", version, err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewStoreError wraps a backing-store failure with operation context. The
// store layer never retries implicitly; retry policy belongs to the caller.
func NewStoreError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreFailed,
		Message:   "backing store operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %v", operation, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// Kind predicates
// ==========================

func codeOf(err error) (ErrorCode, bool) {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se.Code, true
	}
	return "", false
}

// IsNotFound reports whether err is an unknown-template or unknown-version error.
func IsNotFound(err error) bool {
	code, ok := codeOf(err)
	return ok && (code == ErrCodeTemplateNotFound || code == ErrCodeVersionNotFound)
}

// IsConflict reports whether err is a lost race on the atomic latest-flag swap.
func IsConflict(err error) bool {
	code, ok := codeOf(err)
	return ok && code == ErrCodeVersionConflict
}

// IsValidationFailed reports whether err blocks persistence on critical
// validation errors.
func IsValidationFailed(err error) bool {
	code, ok := codeOf(err)
	return ok && code == ErrCodeTemplateValidationFailed
}

// IsStoreError reports whether err originated in the backing store.
func IsStoreError(err error) bool {
	code, ok := codeOf(err)
	return ok && code == ErrCodeStoreFailed
}
