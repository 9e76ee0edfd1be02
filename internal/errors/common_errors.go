package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies an AppError; the HTTP layer derives the status from it
type ErrorType string

const (
	ErrTypeNetwork     ErrorType = "NETWORK"     // incident log download
	ErrTypeParsing     ErrorType = "PARSING"     // unreadable workbook or CSV
	ErrTypeStorage     ErrorType = "STORAGE"     // data directory I/O
	ErrTypeValidation  ErrorType = "VALIDATION"  // bad caller input
	ErrTypeNotFound    ErrorType = "NOT_FOUND"   // dataset, job or input file
	ErrTypeConflict    ErrorType = "CONFLICT"    // job state transitions
	ErrTypeUnsupported ErrorType = "UNSUPPORTED" // legacy .xls and unknown formats
	ErrTypeConfig      ErrorType = "CONFIG"
)

// AppError is a typed error raised below the transport layer
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithContext attaches a key to the error. Client-facing problems expose
// the context of 4xx errors only.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{}, 1)
	}
	e.Context[key] = value
	return e
}

// NewAppError creates an AppError of any type
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{Type: errType, Message: message, Cause: cause}
}

func NewNetworkError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNetwork, message, cause)
}

func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewAppValidationError rejects caller input outside an HTTP request
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError names the missing resource in the message and in the
// "resource" context key; resource "job" renders as a job-not-found problem.
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, resource+" not found", nil).
		WithContext("resource", resource)
}

// NewConflictError reports an operation that clashes with current state,
// such as cancelling a job that already finished.
func NewConflictError(message string) *AppError {
	return NewAppError(ErrTypeConflict, message, nil)
}

// NewUnsupportedError reports input the cleaner cannot read
func NewUnsupportedError(message string, cause error) *AppError {
	return NewAppError(ErrTypeUnsupported, message, cause)
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or ""
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}
