package middleware

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"ocr-api-go/logcolors"
	"ocr-api-go/stats"
)

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// getStatusColor returns the ANSI color for a status code class
func getStatusColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "\033[32m" // green
	case statusCode >= 300 && statusCode < 400:
		return "\033[36m" // cyan
	case statusCode >= 400 && statusCode < 500:
		return "\033[33m" // yellow
	default:
		return "\033[31m" // red
	}
}

// LoggingMiddleware logs every request with its status, duration and
// remote address, and feeds the stats counters.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		elapsed := time.Since(start)
		s := stats.Get()
		s.RecordRequest(r.URL.Path)
		s.RecordStatusCode(recorder.status)
		s.RecordResponseTime(elapsed, r.URL.Path)

		log.Infof("%s %s %s %s%d%s %v %s",
			logcolors.LogServer,
			r.Method,
			r.URL.Path,
			getStatusColor(recorder.status),
			recorder.status,
			logcolors.Reset,
			elapsed,
			r.RemoteAddr,
		)
	})
}
