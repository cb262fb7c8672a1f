package webhook

import (
	"errors"
	"fmt"
	"strings"
)

// Rejection reasons. Every rejected delivery returns a *RejectionError whose
// Reason is one of these.
var (
	ErrMalformedPayload = errors.New("webhook: malformed payload")
	ErrMissingFields    = errors.New("webhook: missing required fields")
	ErrTypeMismatch     = errors.New("webhook: event type mismatch")
	ErrSchemaViolation  = errors.New("webhook: data violates event schema")
)

// RejectionError explains why a delivery was not normalized.
type RejectionError struct {
	Reason error

	// Want is the event type the normalizer is registered for.
	Want string

	// Got is the type carried by the delivery (type mismatches only).
	Got string

	// Missing lists absent required fields (missing fields only).
	Missing []string

	// Detail is free-form diagnostic text.
	Detail string
}

func (e *RejectionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason.Error())
	switch {
	case len(e.Missing) > 0:
		fmt.Fprintf(&b, ": %s", strings.Join(e.Missing, ", "))
	case errors.Is(e.Reason, ErrTypeMismatch):
		fmt.Fprintf(&b, ": got %q, want %q", e.Got, e.Want)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *RejectionError) Unwrap() error { return e.Reason }

// Outcome returns a short label for metrics and logs.
func (e *RejectionError) Outcome() string {
	switch {
	case errors.Is(e.Reason, ErrMissingFields):
		return "missing_fields"
	case errors.Is(e.Reason, ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(e.Reason, ErrSchemaViolation):
		return "schema_violation"
	default:
		return "malformed"
	}
}
