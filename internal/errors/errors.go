// Package errors provides the structured error taxonomy shared by every
// worker and HTTP handler in the media-intelligence pipeline: validation,
// not found, conflict, forbidden, misconfigured, transient upstream and
// internal. Every AppError carries the HTTP status code its taxonomy
// entry maps to, so handlers never hand-roll status mapping.
package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorType classifies an AppError for status-code mapping, retry
// decisions and safe-message redaction.
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeAuth          ErrorType = "auth"
	ErrorTypeForbidden     ErrorType = "forbidden"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeConflict      ErrorType = "conflict"
	ErrorTypeTimeout       ErrorType = "timeout"
	ErrorTypeRateLimit     ErrorType = "rate_limit"
	ErrorTypeDatabase      ErrorType = "database"
	ErrorTypeNetwork       ErrorType = "network"
	ErrorTypeMisconfigured ErrorType = "misconfigured"
	ErrorTypeInternal      ErrorType = "internal"
)

var statusCodes = map[ErrorType]int{
	ErrorTypeValidation:    http.StatusUnprocessableEntity,
	ErrorTypeAuth:          http.StatusUnauthorized,
	ErrorTypeForbidden:     http.StatusForbidden,
	ErrorTypeNotFound:      http.StatusNotFound,
	ErrorTypeConflict:      http.StatusConflict,
	ErrorTypeTimeout:       http.StatusRequestTimeout,
	ErrorTypeRateLimit:     http.StatusTooManyRequests,
	ErrorTypeDatabase:      http.StatusInternalServerError,
	ErrorTypeNetwork:       http.StatusInternalServerError,
	ErrorTypeMisconfigured: http.StatusInternalServerError,
	ErrorTypeInternal:      http.StatusInternalServerError,
}

// AppError is the structured error every component returns across a
// component boundary (store, adapter, worker, HTTP handler).
type AppError struct {
	Type       ErrorType
	Message    string
	Details    string
	Cause      error
	StatusCode int
}

func New(t ErrorType, message string) *AppError {
	return &AppError{Type: t, Message: message, StatusCode: statusCodeFor(t)}
}

func statusCodeFor(t ErrorType) int {
	if code, ok := statusCodes[t]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithDetailsf(format string, args ...interface{}) *AppError {
	e.Details = fmt.Sprintf(format, args...)
	return e
}

// Wrap attaches a causing error to a new AppError of the given type.
func Wrap(cause error, t ErrorType, message string) *AppError {
	return &AppError{Type: t, Message: message, Cause: cause, StatusCode: statusCodeFor(t)}
}

func Wrapf(cause error, t ErrorType, format string, args ...interface{}) *AppError {
	return Wrap(cause, t, fmt.Sprintf(format, args...))
}

func NewValidationError(message string) *AppError { return New(ErrorTypeValidation, message) }

func NewForbiddenError(message string) *AppError { return New(ErrorTypeForbidden, message) }

func NewNotFoundError(resource string) *AppError {
	return New(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource))
}

func NewConflictError(message string) *AppError { return New(ErrorTypeConflict, message) }

func NewAuthError(message string) *AppError { return New(ErrorTypeAuth, message) }

func NewTimeoutError(operation string) *AppError {
	return New(ErrorTypeTimeout, fmt.Sprintf("operation timed out: %s", operation))
}

func NewMisconfiguredError(setting string) *AppError {
	return New(ErrorTypeMisconfigured, fmt.Sprintf("configuration error for setting %s", setting))
}

func NewDatabaseError(operation string, cause error) *AppError {
	return Wrap(cause, ErrorTypeDatabase, fmt.Sprintf("database operation failed: %s", operation))
}

func NewNetworkError(operation, endpoint string, cause error) *AppError {
	return Wrap(cause, ErrorTypeNetwork, fmt.Sprintf("failed to %s: %s", operation, endpoint))
}

// IsType reports whether err is an *AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == t
}

// GetType returns err's ErrorType, or ErrorTypeInternal for non-AppErrors.
func GetType(err error) ErrorType {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// GetStatusCode returns the HTTP status code for err.
func GetStatusCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// ErrorMessages holds the safe, caller-facing text for error types whose
// internal detail must not leak (everything except validation, which is
// passed through because it already describes the caller's own mistake).
var ErrorMessages = struct {
	ResourceNotFound        string
	AuthenticationFailed    string
	OperationTimeout        string
	RateLimitExceeded       string
	ConcurrentModification  string
	InternalError           string
}{
	ResourceNotFound:       "The requested resource was not found",
	AuthenticationFailed:   "Authentication failed",
	OperationTimeout:       "The operation timed out",
	RateLimitExceeded:      "Rate limit exceeded, please retry later",
	ConcurrentModification: "The resource was modified concurrently, please retry",
	InternalError:          "An internal error occurred",
}

// SafeErrorMessage returns a message safe to return to an API caller,
// redacting internal detail for every taxonomy entry except validation.
func SafeErrorMessage(err error) string {
	appErr, ok := err.(*AppError)
	if !ok {
		return "An unexpected error occurred"
	}
	switch appErr.Type {
	case ErrorTypeValidation:
		return appErr.Message
	case ErrorTypeNotFound:
		return ErrorMessages.ResourceNotFound
	case ErrorTypeAuth, ErrorTypeForbidden:
		return ErrorMessages.AuthenticationFailed
	case ErrorTypeTimeout:
		return ErrorMessages.OperationTimeout
	case ErrorTypeRateLimit:
		return ErrorMessages.RateLimitExceeded
	case ErrorTypeConflict:
		return ErrorMessages.ConcurrentModification
	default:
		return ErrorMessages.InternalError
	}
}

// LogFields returns structured fields suitable for a zap/logrus sugared
// logger call site.
func LogFields(err error) map[string]interface{} {
	fields := map[string]interface{}{"error": err.Error()}
	appErr, ok := err.(*AppError)
	if !ok {
		return fields
	}
	fields["error_type"] = string(appErr.Type)
	fields["status_code"] = appErr.StatusCode
	if appErr.Details != "" {
		fields["error_details"] = appErr.Details
	}
	if appErr.Cause != nil {
		fields["underlying_error"] = appErr.Cause.Error()
	}
	return fields
}

// Chain joins non-nil errors with " -> ", returning nil if none are
// non-nil and the bare error if exactly one is.
func Chain(errs ...error) error {
	var nonNil []error
	for _, e := range errs {
		if e != nil {
			nonNil = append(nonNil, e)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	}
	parts := make([]string, len(nonNil))
	for i, e := range nonNil {
		parts[i] = e.Error()
	}
	return fmt.Errorf("%s", strings.Join(parts, " -> "))
}

// Truncate caps an error message to n characters, used when persisting
// errorMessage columns bounded by spec (≤ 1000 chars).
func Truncate(message string, n int) string {
	if len(message) <= n {
		return message
	}
	return message[:n]
}
