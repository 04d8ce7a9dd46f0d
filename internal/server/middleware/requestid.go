package middleware

import (
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/leadpulse/leadpulse/internal/errors"
)

// RequestIDHeader is honored on requests and echoed on responses.
const RequestIDHeader = "X-Request-ID"

// RequestID attaches a request id to the context. An inbound header wins
// so callers can correlate across services.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(apperrors.WithRequestID(r.Context(), id)))
	})
}
