package middleware

import (
	"net/http"
	"time"
)

// Logging logs request start and completion with timing.
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		m.log.Debug(r.Context(), "started",
			"method", r.Method,
			"url", r.URL.Path,
		)

		next.ServeHTTP(rw, r)

		m.log.Debug(r.Context(), "completed",
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration", time.Since(start),
		)
	})
}
