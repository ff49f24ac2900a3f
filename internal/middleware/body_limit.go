package middleware

import "net/http"

// payloadTooLarge matches the API's error body for 413.
const payloadTooLarge = `{"error":"payload_too_large","message":"request body too large"}`

// MaxBodySize caps palette and color bodies at maxBytes. A declared
// Content-Length over the cap is refused here; a chunked body is cut off by
// http.MaxBytesReader and the handler sees *http.MaxBytesError.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				_, _ = w.Write([]byte(payloadTooLarge))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
