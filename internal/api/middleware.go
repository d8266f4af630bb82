package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/cinestat/internal/logger"
)

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogger tags each request with an X-Request-ID and logs its outcome.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		if rec.status >= 500 {
			logger.Warn("%s %s -> %d in %v (request %s)", r.Method, r.URL.Path, rec.status, time.Since(start), requestID)
			return
		}
		logger.Debug("%s %s -> %d in %v (request %s)", r.Method, r.URL.Path, rec.status, time.Since(start), requestID)
	})
}
