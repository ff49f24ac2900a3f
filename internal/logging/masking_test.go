package logging

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestMaskHeader(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		value    string
		expected string
	}{
		// Full redaction
		{"password header", "Password", "secret123", Redacted},
		{"secret header", "X-Secret", "topsecret", Redacted},
		{"cookie", "Cookie", "a=b", Redacted},

		// Authorization keeps the scheme
		{"bearer", "Authorization", "Bearer admin-token-1234", "Bearer ****1234"},
		{"bearer short", "Authorization", "Bearer abc", "Bearer ****"},
		{"no scheme", "Authorization", "rawcredential9999", "****9999"},
		{"empty", "Authorization", "", "****"},
		{"upper case name", "AUTHORIZATION", "Bearer secret-abcd", "Bearer ****abcd"},

		// Session token
		{"session token", "X-Session-Token", "0123456789abcdef", "****cdef"},
		{"session token lower", "x-session-token", "0123456789abcdef", "****cdef"},
		{"short session token", "X-Session-Token", "abc", "****"},

		// Unchanged
		{"content-type", "Content-Type", "application/json", "application/json"},
		{"request id", "X-Request-ID", "req-123", "req-123"},
		{"forwarded for", "X-Forwarded-For", "203.0.113.1", "203.0.113.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := MaskHeader(tt.header, tt.value)
			if result != tt.expected {
				t.Errorf("MaskHeader(%q, %q) = %q, want %q",
					tt.header, tt.value, result, tt.expected)
			}
		})
	}
}

func TestRedactJSONFields(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		fields   []string
		expected string
	}{
		{
			name:     "session response",
			body:     `{"token":"abcdef0123"}`,
			fields:   SecretFields,
			expected: `{"token":"[REDACTED]"}`,
		},
		{
			name:     "palette body untouched",
			body:     `{"name":"Sunset Glow","colors":[{"value":"#ff8800"}]}`,
			fields:   SecretFields,
			expected: `{"name":"Sunset Glow","colors":[{"value":"#ff8800"}]}`,
		},
		{
			name:     "nested and case insensitive",
			body:     `{"data":{"Token":"x","items":[{"token":"y","keep":1}]}}`,
			fields:   []string{"token"},
			expected: `{"data":{"Token":"[REDACTED]","items":[{"token":"[REDACTED]","keep":1}]}}`,
		},
		{
			name:     "object value redacted whole",
			body:     `{"token":{"a":1}}`,
			fields:   []string{"token"},
			expected: `{"token":"[REDACTED]"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := RedactJSONFields([]byte(tt.body), tt.fields)
			if !jsonEqual(got, []byte(tt.expected)) {
				t.Errorf("RedactJSONFields() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestRedactJSONFieldsPassthrough(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		body   []byte
		fields []string
	}{
		{"empty body", nil, SecretFields},
		{"no fields", []byte(`{"token":"x"}`), nil},
		{"invalid json", []byte(`{"token":`), SecretFields},
		{"plain text", []byte("not json"), SecretFields},
	}
	for _, c := range cases {
		got := RedactJSONFields(c.body, c.fields)
		if string(got) != string(c.body) {
			t.Errorf("%s: expected body unchanged, got %q", c.name, got)
		}
	}
}

func TestFormatBinaryData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		data     []byte
		expected string
	}{
		{nil, "[BINARY: 0 bytes]"},
		{[]byte{0xff, 0xfe}, "[BINARY: 2 bytes]"},
		{make([]byte, 1024), "[BINARY: 1024 bytes]"},
	}
	for _, tt := range tests {
		if got := FormatBinaryData(tt.data); got != tt.expected {
			t.Errorf("FormatBinaryData() = %q, want %q", got, tt.expected)
		}
	}
}

// jsonEqual compares two JSON documents semantically.
func jsonEqual(a, b []byte) bool {
	var va, vb any
	if err := json.Unmarshal(a, &va); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &vb); err != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}
