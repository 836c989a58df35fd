// Package errors defines custom error types and error handling utilities for the Customer Reliability Network.
// Every error crossing a service boundary is a CRNError carrying a stable code and an HTTP status.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode is a stable, machine-readable error identifier
type ErrorCode string

const (
	ErrCodeInvalidRequest    ErrorCode = "invalid_request"
	ErrCodeDuplicateCustomer ErrorCode = "duplicate_customer"
	ErrCodeNotFound          ErrorCode = "not_found"
	ErrCodeConflict          ErrorCode = "conflict"
	ErrCodeStoreFailure      ErrorCode = "store_failure"
	ErrCodeRateLimitExceeded ErrorCode = "rate_limit_exceeded"
	ErrCodeUnauthorized      ErrorCode = "unauthorized"
	ErrCodeForbidden         ErrorCode = "forbidden"
	ErrCodeInternal          ErrorCode = "internal_error"
)

// ================================================================================
// Base Error Interface
// ================================================================================

// CRNError represents a structured error with additional metadata
type CRNError interface {
	error

	// Code returns the stable error code
	Code() ErrorCode

	// HTTPStatus returns the HTTP status code
	HTTPStatus() int

	// Description returns a human-readable description
	Description() string

	// Unwrap returns the underlying error for error chain support
	Unwrap() error

	// WithCause adds a cause error to the error chain
	WithCause(cause error) CRNError

	// WithMetadata adds additional context metadata
	WithMetadata(key string, value interface{}) CRNError

	// Metadata returns all metadata
	Metadata() map[string]interface{}
}

// ================================================================================
// Base Error Implementation
// ================================================================================

type baseError struct {
	code        ErrorCode
	httpStatus  int
	description string
	message     string
	cause       error
	metadata    map[string]interface{}
}

func (e *baseError) Error() string {
	msg := e.message
	if msg == "" {
		msg = e.description
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

func (e *baseError) Code() ErrorCode { return e.code }

func (e *baseError) HTTPStatus() int { return e.httpStatus }

func (e *baseError) Description() string { return e.description }

func (e *baseError) Unwrap() error { return e.cause }

func (e *baseError) WithCause(cause error) CRNError {
	e.cause = cause
	return e
}

func (e *baseError) WithMetadata(key string, value interface{}) CRNError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

func (e *baseError) Metadata() map[string]interface{} {
	return e.metadata
}

// NewError creates a new CRNError with the specified parameters
func NewError(code ErrorCode, httpStatus int, description string, message string) CRNError {
	return &baseError{
		code:        code,
		httpStatus:  httpStatus,
		description: description,
		message:     message,
		metadata:    make(map[string]interface{}),
	}
}

// ================================================================================
// Predefined Error Constructors
// ================================================================================

// ErrValidation creates an invalid_request error for malformed input
func ErrValidation(message string) CRNError {
	return NewError(
		ErrCodeInvalidRequest,
		http.StatusBadRequest,
		"The request is missing a required parameter or includes an invalid parameter value.",
		message,
	)
}

// ErrMissingRequiredParameter creates a missing required parameter error
func ErrMissingRequiredParameter(paramName string) CRNError {
	return ErrValidation(fmt.Sprintf("Missing required parameter: %s", paramName)).
		WithMetadata("parameter", paramName)
}

// ErrInvalidParameterFormat creates an invalid parameter format error
func ErrInvalidParameterFormat(paramName string, expectedFormat string) CRNError {
	return ErrValidation(fmt.Sprintf("Invalid format for parameter '%s': expected %s", paramName, expectedFormat)).
		WithMetadata("parameter", paramName).
		WithMetadata("expected_format", expectedFormat)
}

// ErrDuplicateCustomer reports a tenant-local duplicate. The caller may retry with
// skip_duplicate_check to force the insert.
func ErrDuplicateCustomer(field string, existingID string) CRNError {
	return NewError(
		ErrCodeDuplicateCustomer,
		http.StatusConflict,
		"A customer with the same contact details already exists for this business.",
		fmt.Sprintf("Duplicate customer on %s", field),
	).WithMetadata("field", field).
		WithMetadata("existing_id", existingID)
}

// ErrNotFound creates a generic not_found error
func ErrNotFound(resource string, id string) CRNError {
	return NewError(
		ErrCodeNotFound,
		http.StatusNotFound,
		fmt.Sprintf("%s not found", resource),
		fmt.Sprintf("%s not found: %s", resource, id),
	).WithMetadata("resource", resource).
		WithMetadata("id", id)
}

// ErrCustomerNotFound creates a customer not found error
func ErrCustomerNotFound(customerID string) CRNError {
	return ErrNotFound("customer", customerID)
}

// ErrIdentityNotFound creates a network identity not found error
func ErrIdentityNotFound(identityID string) CRNError {
	return ErrNotFound("network identity", identityID)
}

// ErrPropertyNotFound creates a property record not found error
func ErrPropertyNotFound(propertyID string) CRNError {
	return ErrNotFound("property", propertyID)
}

// ErrBusinessNotFound creates a business not found error
func ErrBusinessNotFound(businessID string) CRNError {
	return ErrNotFound("business", businessID)
}

// ErrConflict creates a conflict error
func ErrConflict(message string) CRNError {
	return NewError(ErrCodeConflict, http.StatusConflict, "The request conflicts with the current state of the resource.", message)
}

// ErrStoreFailure wraps a persistence failure. Store failures are not retried.
func ErrStoreFailure(op string, cause error) CRNError {
	return NewError(
		ErrCodeStoreFailure,
		http.StatusServiceUnavailable,
		"The data store could not complete the operation.",
		fmt.Sprintf("store operation %s failed", op),
	).WithCause(cause).
		WithMetadata("operation", op)
}

// ErrRateLimitExceeded creates a rate limit exceeded error
func ErrRateLimitExceeded(scope string, limit int) CRNError {
	return NewError(
		ErrCodeRateLimitExceeded,
		http.StatusTooManyRequests,
		"Rate limit exceeded. Please try again later.",
		fmt.Sprintf("Rate limit exceeded for scope '%s': %d requests", scope, limit),
	).WithMetadata("scope", scope).
		WithMetadata("limit", limit)
}

// ErrUnauthorized creates an unauthorized error
func ErrUnauthorized(message string) CRNError {
	return NewError(ErrCodeUnauthorized, http.StatusUnauthorized, "Authentication is required.", message)
}

// ErrForbidden is returned when an authenticated caller lacks the required role
func ErrForbidden(message string) CRNError {
	return NewError(ErrCodeForbidden, http.StatusForbidden, "The caller is not allowed to perform this operation.", message)
}

// ErrInternal creates an internal error
func ErrInternal(message string) CRNError {
	return NewError(ErrCodeInternal, http.StatusInternalServerError, "An unexpected error occurred.", message)
}

// ================================================================================
// Error Inspection Utilities
// ================================================================================

// AsCRNError finds the first CRNError in the error chain
func AsCRNError(err error) (CRNError, bool) {
	var crnErr CRNError
	if stderrors.As(err, &crnErr) {
		return crnErr, true
	}
	return nil, false
}

func hasCode(err error, code ErrorCode) bool {
	if crnErr, ok := AsCRNError(err); ok {
		return crnErr.Code() == code
	}
	return false
}

// IsValidationError checks if an error is an invalid_request error
func IsValidationError(err error) bool { return hasCode(err, ErrCodeInvalidRequest) }

// IsDuplicateError checks if an error is a duplicate customer error
func IsDuplicateError(err error) bool { return hasCode(err, ErrCodeDuplicateCustomer) }

// IsNotFoundError checks if an error is a not found error.
func IsNotFoundError(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsStoreFailure checks if an error is a store failure
func IsStoreFailure(err error) bool { return hasCode(err, ErrCodeStoreFailure) }

// IsRateLimitError checks if an error is related to rate limiting
func IsRateLimitError(err error) bool { return hasCode(err, ErrCodeRateLimitExceeded) }

// DuplicateDetails returns the conflicting field and existing customer id of a duplicate error
func DuplicateDetails(err error) (field string, existingID string, ok bool) {
	crnErr, isCRN := AsCRNError(err)
	if !isCRN || crnErr.Code() != ErrCodeDuplicateCustomer {
		return "", "", false
	}
	field, _ = crnErr.Metadata()["field"].(string)
	existingID, _ = crnErr.Metadata()["existing_id"].(string)
	return field, existingID, true
}

// ShouldLogError determines if an error should be logged at error level
func ShouldLogError(err error) bool {
	if crnErr, ok := AsCRNError(err); ok {
		status := crnErr.HTTPStatus()
		return status >= 500
	}
	return true
}

// ================================================================================
// Error Response Builder
// ================================================================================

// ErrorResponse represents the JSON structure for error responses
type ErrorResponse struct {
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Description string                 `json:"description,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// ToErrorResponse converts any error to an ErrorResponse
func ToErrorResponse(err error) *ErrorResponse {
	if crnErr, ok := AsCRNError(err); ok {
		resp := &ErrorResponse{
			Code:        string(crnErr.Code()),
			Message:     crnErr.Error(),
			Description: crnErr.Description(),
			Metadata:    crnErr.Metadata(),
		}
		// Driver errors stay in the logs.
		if crnErr.Code() == ErrCodeStoreFailure {
			resp.Message = crnErr.Description()
		}
		return resp
	}
	return &ErrorResponse{
		Code:    string(ErrCodeInternal),
		Message: "An unexpected error occurred",
	}
}

// StatusOf returns the HTTP status for any error, defaulting to 500
func StatusOf(err error) int {
	if crnErr, ok := AsCRNError(err); ok {
		return crnErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}
