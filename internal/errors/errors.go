package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response.
type APIError struct {
	StatusCode int         `json:"-"`
	ErrorCode  string      `json:"code"`
	Message    string      `json:"error"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates a new APIError with the given parameters.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details.
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Error taxonomy for the dashboard.
var (
	// ErrDataUnavailable signals that neither the cache nor the remote
	// source could provide the dataset.
	ErrDataUnavailable = New(http.StatusInternalServerError, "DATA_UNAVAILABLE", "Dataset could not be loaded from cache or remote source")

	// ErrNotReady signals that data initialization has not succeeded yet.
	ErrNotReady = New(http.StatusInternalServerError, "NOT_READY", "Data not loaded")

	// ErrInvalidInput signals a bad chart/analysis type or parameter.
	ErrInvalidInput = New(http.StatusBadRequest, "INVALID_INPUT", "Invalid request parameter")

	// ErrNotFound signals a valid request whose underlying data is absent.
	ErrNotFound = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")

	// ErrInternalServer is the generic fallback.
	ErrInternalServer = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

// ValidationError carries field-level validation context.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrValidation creates an invalid-input error with field details.
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_INPUT", message, ValidationError{
		Field:   field,
		Message: message,
	})
}

// InvalidInput creates an invalid-input error with a custom message.
func InvalidInput(message string) *APIError {
	return New(http.StatusBadRequest, "INVALID_INPUT", message)
}

// NotFound creates a not-found error for a named resource.
func NotFound(resource string) *APIError {
	return New(http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("%s not available", resource))
}

// DataUnavailable wraps a load failure with its cause.
func DataUnavailable(err error) *APIError {
	return NewWithDetails(http.StatusInternalServerError, "DATA_UNAVAILABLE", "Dataset could not be loaded from cache or remote source", err.Error())
}

// ErrorResponse is the JSON body written for every failed request.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
}

// Render implements the render.Renderer interface.
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}
