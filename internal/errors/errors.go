package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"

	// Authorization errors
	ErrCodeForbidden               = "FORBIDDEN"
	ErrCodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"

	// Validation errors
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeMissingField  = "MISSING_FIELD"
	ErrCodeInvalidFormat = "INVALID_FORMAT"

	// Resource errors
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeConflict      = "CONFLICT"

	// Business logic errors
	ErrCodeInvalidOperation = "INVALID_OPERATION"
	ErrCodeOperationFailed  = "OPERATION_FAILED"

	// Service errors
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError represents a standardized API error response
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// NewAPIErrorWithDetails creates a new APIError with details
func NewAPIErrorWithDetails(code, message string, details interface{}) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NotFoundf, Forbiddenf, Conflictf and Invalidf build the four error kinds the
// board core reports. Every other error is treated as internal.
func NotFoundf(format string, args ...interface{}) *APIError {
	return NewAPIError(ErrCodeNotFound, fmt.Sprintf(format, args...))
}

func Forbiddenf(format string, args ...interface{}) *APIError {
	return NewAPIError(ErrCodeForbidden, fmt.Sprintf(format, args...))
}

func Conflictf(format string, args ...interface{}) *APIError {
	return NewAPIError(ErrCodeConflict, fmt.Sprintf(format, args...))
}

func Invalidf(format string, args ...interface{}) *APIError {
	return NewAPIError(ErrCodeInvalidInput, fmt.Sprintf(format, args...))
}

// CodeOf returns the code of the first APIError in err's chain, or
// ErrCodeInternalError when there is none.
func CodeOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ErrCodeInternalError
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeForbidden, ErrCodeInsufficientPermissions:
		return http.StatusForbidden
	case ErrCodeConflict, ErrCodeAlreadyExists:
		return http.StatusConflict
	case ErrCodeInvalidInput, ErrCodeMissingField, ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case ErrCodeUnauthorized, ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes err as a JSON error response. Errors outside the APIError
// taxonomy are reported as internal errors without leaking their message.
func Respond(c *gin.Context, err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		_ = c.Error(err)
		InternalError(c, "")
		return
	}
	RespondWithError(c, StatusFor(apiErr.Code), apiErr)
}

// Predefined errors
var (
	ErrUnauthorized       = NewAPIError(ErrCodeUnauthorized, "Authentication required")
	ErrForbidden          = NewAPIError(ErrCodeForbidden, "Access denied")
	ErrNotFound           = NewAPIError(ErrCodeNotFound, "Resource not found")
	ErrInvalidInput       = NewAPIError(ErrCodeInvalidInput, "Invalid request body")
	ErrInternalError      = NewAPIError(ErrCodeInternalError, "Internal server error")
	ErrServiceUnavailable = NewAPIError(ErrCodeServiceUnavailable, "Service temporarily unavailable")
)

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.JSON(statusCode, err)
}

// Helper functions for common error responses

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, NewAPIError(ErrCodeUnauthorized, message))
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Access denied"
	}
	RespondWithError(c, http.StatusForbidden, NewAPIError(ErrCodeForbidden, message))
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, NewAPIError(ErrCodeNotFound, message))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, NewAPIError(ErrCodeInvalidInput, message))
}

// BadRequestWithDetails sends a 400 response with details
func BadRequestWithDetails(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, NewAPIErrorWithDetails(ErrCodeInvalidInput, message, details))
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) {
	if message == "" {
		message = "Resource conflict"
	}
	RespondWithError(c, http.StatusConflict, NewAPIError(ErrCodeConflict, message))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, message))
}

// ServiceUnavailable sends a 503 response
func ServiceUnavailable(c *gin.Context, message string) {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	RespondWithError(c, http.StatusServiceUnavailable, NewAPIError(ErrCodeServiceUnavailable, message))
}
