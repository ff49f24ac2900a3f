package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// unmatchedRoute labels requests that no route pattern matched.
const unmatchedRoute = "unmatched"

// statusRecorder wraps http.ResponseWriter to capture the status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// WriteHeader captures the status code and writes it to the underlying ResponseWriter
func (r *statusRecorder) WriteHeader(code int) {
	if !r.written {
		r.statusCode = code
		r.written = true
		r.ResponseWriter.WriteHeader(code)
	}
}

// Write ensures WriteHeader is called before writing body
func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.written {
		r.statusCode = http.StatusOK
		r.written = true
	}
	return r.ResponseWriter.Write(b)
}

// Middleware returns an HTTP middleware that records request count and
// latency labelled by method, chi route pattern and status code.
// A panic in the handler is recorded and answered as 500.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}
		startTime := time.Now()

		defer func() {
			duration := time.Since(startTime).Seconds()

			panicked := recover()
			if panicked != nil && !recorder.written {
				recorder.WriteHeader(http.StatusInternalServerError)
			}

			statusCode := recorder.statusCode
			if statusCode == 0 || panicked != nil {
				statusCode = http.StatusInternalServerError
			}

			path := routePattern(r)
			status := strconv.Itoa(statusCode)
			RecordRequest(r.Method, path, status)
			RecordRequestDuration(r.Method, path, status, duration)
		}()

		next.ServeHTTP(recorder, r)
	})
}

// routePattern returns the matched chi route pattern, e.g.
// "/palettes/{slug}/vote", keeping slugs and ids out of label values.
// It must run after routing, which is why Middleware reads it in its defer.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedRoute
}
