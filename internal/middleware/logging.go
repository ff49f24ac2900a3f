package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/sipico/palette-api/internal/logging"
)

// maxLoggedBody caps how much of a palette or color body lands in one log
// line. Bodies are bounded by MaxBodySize anyway; list responses are not.
const maxLoggedBody = 4096

// HTTPLogging writes one debug record per API exchange with the request and
// the response grouped under "request" and "response". Session and admin
// tokens are masked in headers; redactFields are blanked in JSON bodies.
// Nothing is buffered unless debug logging is enabled.
func HTTPLogging(logger *slog.Logger, redactFields []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !logger.Enabled(r.Context(), slog.LevelDebug) {
				next.ServeHTTP(w, r)
				return
			}

			reqBody, err := captureBody(r)
			if err != nil {
				Logger(r.Context(), logger).Warn("could not capture request body", "error", err)
			}

			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(cw, r)

			Logger(r.Context(), logger).Debug("api exchange",
				slog.Group("request",
					"method", r.Method,
					"path", r.URL.Path,
					"query", r.URL.RawQuery,
					"headers", maskHeaders(r.Header),
					"body", renderBody(reqBody, redactFields),
				),
				slog.Group("response",
					"status", cw.status,
					"headers", maskHeaders(cw.Header()),
					"body", renderBody(cw.body.Bytes(), redactFields),
				),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// captureBody reads the request body and puts back a reader that replays it.
// A read failure (usually the MaxBodySize limit) is replayed to the handler
// after the bytes that were read.
func captureBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), failingReader{err}))
		return body, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

func maskHeaders(headers http.Header) map[string]string {
	masked := make(map[string]string, len(headers))
	for name, values := range headers {
		if len(values) > 0 {
			masked[name] = logging.MaskHeader(name, values[0])
		}
	}
	return masked
}

func renderBody(body []byte, redactFields []string) string {
	switch {
	case len(body) == 0:
		return ""
	case !utf8.Valid(body):
		return logging.FormatBinaryData(body)
	}
	out := string(logging.RedactJSONFields(body, redactFields))
	if len(out) > maxLoggedBody {
		return out[:maxLoggedBody] + "...[truncated]"
	}
	return out
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

// captureWriter keeps a copy of the status and body it forwards.
type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *captureWriter) WriteHeader(status int) {
	c.status = status
	c.ResponseWriter.WriteHeader(status)
}

func (c *captureWriter) Write(b []byte) (int, error) {
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}
