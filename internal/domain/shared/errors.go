// Package shared contains common domain types and errors that are used
// across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")

	// State errors
	ErrConflict         = errors.New("conflict")
	ErrMethodNotAllowed = errors.New("method not allowed")

	// Authorization errors
	ErrForbidden = errors.New("forbidden")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "mentoring", "report", "member"
	Op      string // Operation that failed, e.g., "Create", "Update"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Mentoring domain errors
var (
	ErrMentoringLogNotFound = NewDomainError("mentoring", "Find", ErrNotFound, "mentoring log not found")
	ErrInvalidTransition    = NewDomainError("mentoring", "Transition", ErrConflict, "invalid status transition")
	ErrStaleMentoringLog    = NewDomainError("mentoring", "Update", ErrConflict, "mentoring log was modified concurrently")
	ErrNotOwningMentor      = NewDomainError("mentoring", "Authorize", ErrForbidden, "requester is not the mentor of this log")
)

// Report domain errors
var (
	ErrReportNotFound      = NewDomainError("report", "Find", ErrNotFound, "report not found")
	ErrReportAlreadyExists = NewDomainError("report", "Create", ErrMethodNotAllowed, "report already exists for this mentoring log")
	ErrMentoringNotDone    = NewDomainError("report", "Create", ErrMethodNotAllowed, "mentoring log is not done")
	ErrReportNotEditable   = NewDomainError("report", "Update", ErrInvalidInput, "report is already submitted")
	ErrStaleReport         = NewDomainError("report", "Update", ErrConflict, "report was modified concurrently")
	ErrNotReportOwner      = NewDomainError("report", "Authorize", ErrForbidden, "requester is not the mentor of this report")
	ErrImageCapacity       = NewDomainError("report", "UploadImage", ErrInvalidInput, "report already holds the maximum number of images")
	ErrSignatureExists     = NewDomainError("report", "UploadSignature", ErrInvalidInput, "report already has a signature")
)

// Member domain errors
var (
	ErrMentorNotFound = NewDomainError("member", "FindMentor", ErrNotFound, "mentor not found")
	ErrCadetNotFound  = NewDomainError("member", "FindCadet", ErrNotFound, "cadet not found")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConflict checks if the error is a state or version conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsForbidden checks if the requester may not perform the operation.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsMethodNotAllowed checks if the operation is not allowed in the current state.
func IsMethodNotAllowed(err error) bool {
	return errors.Is(err, ErrMethodNotAllowed)
}

// IsRetryable checks if the operation can be retried. Only conflicts are:
// a fresh read may observe a state where the operation succeeds.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
