package types

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypePermission ErrorType = "permission"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeIntegrity  ErrorType = "integrity"
	ErrorTypeStorage    ErrorType = "storage"
)

// ClinicError represents a structured error in the clinic system
type ClinicError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *ClinicError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *ClinicError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string, details map[string]interface{}) *ClinicError {
	return &ClinicError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewPermissionError creates a new permission error
func NewPermissionError(code, message string) *ClinicError {
	return &ClinicError{
		Type:    ErrorTypePermission,
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(code, message string) *ClinicError {
	return &ClinicError{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
	}
}

// NewIntegrityError creates a new integrity error
func NewIntegrityError(code, message string) *ClinicError {
	return &ClinicError{
		Type:    ErrorTypeIntegrity,
		Code:    code,
		Message: message,
	}
}

// NewStorageError creates a new storage error
func NewStorageError(code, message string, cause error) *ClinicError {
	return &ClinicError{
		Type:    ErrorTypeStorage,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error codes
const (
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeDuplicateEmail    = "DUPLICATE_EMAIL"
	ErrCodeLastAdmin         = "ADMIN_DELETE_FORBIDDEN"
	ErrCodeInvalidTransition = "INVALID_STATUS_TRANSITION"
	ErrCodeTerminalStatus    = "TERMINAL_STATUS"
	ErrCodeAlreadyRated      = "ALREADY_RATED"
	ErrCodeRecordExists      = "RECORD_EXISTS"
	ErrCodePermissionDenied  = "PERMISSION_DENIED"
	ErrCodeValidationFailed  = "VALIDATION_FAILED"
	ErrCodeStorageCorrupt    = "STORAGE_CORRUPT"
	ErrCodeAuthFailed        = "AUTHENTICATION_FAILED"
	ErrCodeInactiveUser      = "INACTIVE_USER"
	ErrCodeBulkUnsupported   = "BULK_UNSUPPORTED"
)

// hasType reports whether err is a ClinicError of the given type
func hasType(err error, t ErrorType) bool {
	var ce *ClinicError
	if errors.As(err, &ce) {
		return ce.Type == t
	}
	return false
}

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool { return hasType(err, ErrorTypeNotFound) }

// IsIntegrity reports whether err is an integrity error
func IsIntegrity(err error) bool { return hasType(err, ErrorTypeIntegrity) }

// IsPermission reports whether err is a permission error
func IsPermission(err error) bool { return hasType(err, ErrorTypePermission) }

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool { return hasType(err, ErrorTypeValidation) }
