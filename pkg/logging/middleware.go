package logging

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestIDMiddleware adds a request ID to each HTTP request and logs request/response.
// Event streams are logged once when they open and once when the client leaves.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		start := time.Now()
		DebugContext(ctx, "request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remoteAddr", r.RemoteAddr,
		)

		next.ServeHTTP(wrapped, r)

		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"durationMs", time.Since(start).Milliseconds(),
		}
		switch {
		case wrapped.statusCode >= 500:
			ErrorContext(ctx, "request failed", args...)
		case wrapped.statusCode >= 400:
			WarnContext(ctx, "request rejected", args...)
		default:
			InfoContext(ctx, "request completed", args...)
		}
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher for SSE support
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
