package logging

import (
	"log/slog"
	"net/http"
	"time"
)

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// Middleware logs every request handled by next. Successful requests are
// logged at debug level, 4xx and 5xx responses at warn. The logger is also
// stored in the request context.
func Middleware(logger *slog.Logger, component string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r.WithContext(NewContext(r.Context(), logger)))

			level := slog.LevelDebug
			if sr.statusCode >= http.StatusBadRequest {
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "request",
				"component", component,
				"method", r.Method,
				"path", r.URL.Path,
				"status", sr.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
