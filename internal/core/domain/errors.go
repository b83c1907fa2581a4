// Package domain defines the core domain models for statevault.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
// Codes have the form SV-<AREA>-<NNNN>; the last four digits loosely follow
// HTTP status semantics so callers can map them onto a transport if needed.
type DomainError struct {
	Code    string // Error code (e.g., "SV-VER-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.

func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.

func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true // Only check if it's a DomainError
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.

func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Version Errors (VER)
// ============================================================================

var (
	// ErrVersionNotFound indicates the version is neither indexed nor durably stored.
	ErrVersionNotFound = NewDomainError("SV-VER-4040", "version not found")

	// ErrIntegrityViolation indicates a stored checksum does not match its snapshot.
	ErrIntegrityViolation = NewDomainError("SV-VER-4220", "integrity violation")

	// ErrNonCanonical indicates a snapshot value has no canonical serialization.
	ErrNonCanonical = NewDomainError("SV-VER-4000", "snapshot is not canonically serializable")
)

// ============================================================================
// Migration Errors (MIG)
// ============================================================================

var (
	// ErrMigrationGap marks a missing schema step. It is logged, never returned.
	ErrMigrationGap = NewDomainError("SV-MIG-2000", "no migration defined for schema step")

	// ErrMigrationFailed indicates a migration step returned an error.
	ErrMigrationFailed = NewDomainError("SV-MIG-5000", "migration step failed")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrStorageIO indicates a durable read, write or delete failed.
	ErrStorageIO = NewDomainError("SV-SYS-5001", "storage error")

	// ErrInternal indicates an unexpected internal failure.
	ErrInternal = NewDomainError("SV-SYS-5000", "internal error")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("SV-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("SV-ARG-1002", "missing required argument")
)
