// Package logging provides utilities for logging requests without leaking
// session or admin credentials.
package logging

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Redacted replaces secret values in log output.
const Redacted = "[REDACTED]"

// SecretFields are JSON keys whose values are credentials. A session token is
// returned in the body of POST /sessions.
var SecretFields = []string{"token"}

// MaskHeader redacts sensitive header values based on header name.
//
// Rules:
//   - Password/secret headers: "[REDACTED]"
//   - Authorization: scheme kept, credential reduced to its last 4 chars
//   - X-Session-Token: "****" + last 4 chars
//   - Other headers: returned unchanged
func MaskHeader(name, value string) string {
	lowerName := strings.ToLower(name)

	if strings.Contains(lowerName, "password") ||
		strings.Contains(lowerName, "secret") ||
		lowerName == "cookie" {
		return Redacted
	}

	switch lowerName {
	case "authorization":
		scheme, credential, found := strings.Cut(value, " ")
		if !found {
			return maskTail(value)
		}
		return scheme + " " + maskTail(credential)
	case "x-session-token":
		return maskTail(value)
	}

	return value
}

func maskTail(value string) string {
	if len(value) < 8 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}

// RedactJSONFields replaces the values of the named keys anywhere in a JSON
// document with "[REDACTED]". Everything else is preserved.
//
// Returns the body unchanged if it is empty, not JSON, or fields is empty.
func RedactJSONFields(body []byte, fields []string) []byte {
	if len(body) == 0 || len(fields) == 0 {
		return body
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return body
	}

	deny := make(map[string]bool, len(fields))
	for _, f := range fields {
		deny[strings.ToLower(f)] = true
	}

	result, err := json.Marshal(redactValue(data, deny))
	if err != nil {
		return body
	}
	return result
}

func redactValue(value any, deny map[string]bool) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			if deny[strings.ToLower(key)] {
				out[key] = Redacted
				continue
			}
			out[key] = redactValue(val, deny)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = redactValue(item, deny)
		}
		return out
	default:
		return value
	}
}

// FormatBinaryData formats binary data for logging.
func FormatBinaryData(data []byte) string {
	return fmt.Sprintf("[BINARY: %d bytes]", len(data))
}
