package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is returned for every failed call to the document service.
type Error struct {
	Op         string
	Method     string
	Path       string
	StatusCode int // 0 when no HTTP response was received
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("gateway: %s %s %s: %s", e.Op, e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("gateway: %s %s %s: status %d: %s", e.Op, e.Method, e.Path, e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 or 410 from the document service.
func IsNotFound(err error) bool {
	s := StatusOf(err)
	return s == http.StatusNotFound || s == http.StatusGone
}

// errorMessage extracts a human-readable message from an error body. It
// understands {"message": ...}, {"error": "..."} and {"error": {"message": ...}}
// and falls back to the raw body or the status text.
func errorMessage(status int, raw []byte) string {
	var body struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if len(body.Error) > 0 {
			var s string
			if json.Unmarshal(body.Error, &s) == nil && s != "" {
				return s
			}
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(body.Error, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
		}
	}

	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return msg
	}
	return http.StatusText(status)
}
