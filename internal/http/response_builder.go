// Package http exposes the ledger as a JSON API.
//
// This file implements the builder used by every handler to write JSON
// bodies and the mapping from domain errors to status codes.

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"fintrack/internal/app"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/transfer"
)

// errMalformedBody is returned by the request parser when the body is
// neither JSON nor form data.
var errMalformedBody = errors.New("malformed request body")

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// errorBody is the shape of every error response.
type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// ErrorResponse creates a standard {"error": message} response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// ConflictError creates a 409 Conflict error response.
func ConflictError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusConflict, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// StatusFor maps a domain error to the HTTP status the API reports for it.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrTransactionNotFound), errors.Is(err, app.ErrBudgetNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrNotConfirmed), errors.Is(err, app.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, transfer.ErrMalformedImport), errors.Is(err, errMalformedBody):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrSubCentAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrUnknownCategory),
		errors.Is(err, app.ErrInvalidBudget),
		errors.Is(err, ledger.ErrInvalidFilter),
		errors.Is(err, transfer.ErrUnknownFormat):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err with the status from StatusFor. Internal errors are
// logged and only the request ID is exposed.
func writeError(ctx context.Context, w http.ResponseWriter, err error, operation string) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		requestID := trace.GetRequestID(ctx)
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Request failed", err,
			log.ComponentHTTP, operation, log.NewFields().WithRequestID(requestID))
		NewJSONResponse().
			Status(http.StatusInternalServerError).
			Body(errorBody{Error: "internal error", RequestID: requestID}).
			Write(w)
		return
	}
	ErrorResponse(status, err.Error()).Write(w)
}
