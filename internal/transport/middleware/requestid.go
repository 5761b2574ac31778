package middleware

import (
	"net/http"

	"github.com/frahmantamala/access-management/pkg/logger"

	"github.com/google/uuid"
)

// RequestID accepts an X-Trace-ID header or mints one, binds it to the
// request-scoped logger and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.WithFields(r.Context(), "trace_id", traceID)
		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
