package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Danikxd/maturita-web/internal/metrics"
	"github.com/google/uuid"
)

// withCORS adds CORS headers to every response and handles preflight OPTIONS requests.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRequestID reuses the caller's X-Request-ID or mints one, echoes it and
// carries it in the context so outbound data-service calls forward it.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(metrics.WithRequestID(r.Context(), id)))
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// withLogging logs each request with method, path, status and duration, and
// records it under the matched route pattern.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(r.Method, route, sw.status, start)

		log.Printf("%s %-7s %s\x1b[0m  %s %3d %s\x1b[0m  %-6s %s  %s",
			colorForMethod(r.Method), r.Method, "\x1b[0m",
			colorForStatus(sw.status), sw.status, "\x1b[0m",
			formatDuration(time.Since(start)),
			r.URL.Path,
			metrics.RequestIDFromContext(r.Context()),
		)
	})
}

func colorForStatus(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "\x1b[32m"
	case code >= 300 && code < 400:
		return "\x1b[36m"
	case code >= 400 && code < 500:
		return "\x1b[33m"
	default:
		return "\x1b[31m"
	}
}

func colorForMethod(method string) string {
	switch method {
	case http.MethodGet:
		return "\x1b[36m"
	case http.MethodPost:
		return "\x1b[32m"
	case http.MethodPatch:
		return "\x1b[33m"
	case http.MethodDelete:
		return "\x1b[31m"
	default:
		return "\x1b[37m"
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dus", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
