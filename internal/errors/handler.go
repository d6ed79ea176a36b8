package errors

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/render"

	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/infrastructure"
)

// ErrorHandler provides centralized error handling for HTTP handlers.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger.With(slog.String("component", "error_handler")),
	}
}

// HandleError converts any error to the standard JSON error body and responds.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := infrastructure.GetTraceID(r.Context())

	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	resp := h.toResponse(err, reqID)

	render.Status(r, resp.statusCode)
	render.JSON(w, r, resp.body)
}

type errorRendering struct {
	statusCode int
	body       *ErrorResponse
}

// toResponse maps an error to a status code and JSON body. Wrapped errors
// are unwrapped with errors.As so services can annotate causes with fmt.Errorf.
func (h *ErrorHandler) toResponse(err error, traceID string) errorRendering {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return errorRendering{
			statusCode: apiErr.StatusCode,
			body: &ErrorResponse{
				Success: false,
				Message: apiErr.Message,
				Code:    apiErr.ErrorCode,
				Details: apiErr.Details,
				TraceID: traceID,
			},
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errorRendering{
			statusCode: http.StatusGatewayTimeout,
			body: &ErrorResponse{
				Success: false,
				Message: "The request took too long to process and was cancelled",
				Code:    "TIMEOUT",
				TraceID: traceID,
			},
		}
	}

	return errorRendering{
		statusCode: http.StatusInternalServerError,
		body: &ErrorResponse{
			Success: false,
			Message: err.Error(),
			Code:    "INTERNAL_SERVER_ERROR",
			TraceID: traceID,
		},
	}
}

// HandlePanic recovers from panics and writes a generic 500.
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := infrastructure.GetTraceID(r.Context())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, &ErrorResponse{
		Success: false,
		Message: "Internal server error",
		Code:    "INTERNAL_SERVER_ERROR",
		TraceID: reqID,
	})
}

// NotFoundHandler returns a standard 404 JSON body.
func (h *ErrorHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, &ErrorResponse{
		Success: false,
		Message: "The requested resource was not found",
		Code:    "NOT_FOUND",
		TraceID: infrastructure.GetTraceID(r.Context()),
	})
}

// MethodNotAllowedHandler returns a standard 405 JSON body.
func (h *ErrorHandler) MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusMethodNotAllowed)
	render.JSON(w, r, &ErrorResponse{
		Success: false,
		Message: "Method " + r.Method + " is not allowed for this endpoint",
		Code:    "METHOD_NOT_ALLOWED",
		TraceID: infrastructure.GetTraceID(r.Context()),
	})
}
