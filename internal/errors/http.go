// Package errors maps domain errors onto the HTTP error envelope shared
// by every endpoint. The envelope shape is stable API surface; handlers
// go through RespondWithError instead of writing ad-hoc bodies.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/leadpulse/leadpulse/pkg/instantly"
	"github.com/leadpulse/leadpulse/pkg/jobstore"
	"github.com/leadpulse/leadpulse/pkg/refdata"
)

// Stable error codes.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeUpstreamError      = "UPSTREAM_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// HTTPErrorResponse is the JSON envelope for every error response.
type HTTPErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is the inner error object.
type ErrorDetail struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

type requestIDKey struct{}

// WithRequestID stores a request id for error envelopes written later in
// the request's lifetime.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id stored in ctx, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WriteError writes an error envelope with an explicit status and code.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(HTTPErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			RequestID: RequestIDFrom(r.Context()),
			Details:   details,
		},
	})
}

// RespondWithError classifies a domain error and writes the envelope.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	WriteError(w, r, status, code, err.Error(), nil)
}

func classify(err error) (status int, code string) {
	var vErr *refdata.ValidationError
	var fErr *instantly.FetchError

	switch {
	case jobstore.IsNotFound(err):
		return http.StatusNotFound, CodeNotFound
	case errors.As(err, &vErr):
		return http.StatusBadRequest, CodeValidationError
	case instantly.IsThrottled(err):
		return http.StatusServiceUnavailable, CodeServiceUnavailable
	case errors.As(err, &fErr):
		return http.StatusBadGateway, CodeUpstreamError
	default:
		return http.StatusInternalServerError, CodeInternalError
	}
}
