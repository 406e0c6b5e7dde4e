package observability

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/campushub/campushub/pkg/contextkeys"
)

// RequestMiddleware assigns each request an id, attaches a
// request-scoped logger to the context, and logs completion.
func RequestMiddleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := contextkeys.WithRequestID(r.Context(), requestID)
			ctx = contextkeys.WithLogger(ctx, logger.WithField("request_id", requestID))

			w.Header().Set("X-Request-ID", requestID)

			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r.WithContext(ctx))

			logger.WithFields(map[string]interface{}{
				"request_id": requestID,
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     recorder.status,
				"duration":   time.Since(start).String(),
			}).Info("request completed")
		})
	}
}
