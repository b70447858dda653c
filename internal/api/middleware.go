package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/signalsfoundry/alert-correlator/internal/logging"
)

const requestIDHeader = "X-Request-Id"

// RequestID ensures a request_id is present on the context, sourcing it from
// the inbound header if provided, and attaches a per-request logger
// annotated with request_id, method, and path. The ID is echoed back on the
// response.
func RequestID(base logging.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = logging.Noop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}

			ctx := logging.ContextWithRequestID(r.Context(), id)
			reqLog := base.With(
				logging.String("request_id", id),
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
			)
			ctx = logging.ContextWithLogger(ctx, reqLog)

			w.Header().Set(requestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
