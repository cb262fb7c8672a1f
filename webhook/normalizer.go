// Package webhook normalizes inbound event deliveries from the document
// service into flat, host-addressable events.
//
// Deliveries are validated (well-formed object, id/type/timestamp present,
// type equal to the registered type) and the data object is flattened one
// level deep with the "__" separator. Nothing is enriched or re-fetched.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"

	"github.com/xraph/renderrelay/catalog"
	"github.com/xraph/renderrelay/observability"
)

// DefaultSampleLimit bounds how many cached deliveries ListSamples returns.
const DefaultSampleLimit = 3

var requiredFields = []string{"id", "type", "timestamp"}

// Normalizer validates and flattens deliveries for one event type. It holds
// no mutable state and is safe for concurrent use.
type Normalizer struct {
	eventType   string
	catalog     *catalog.Catalog
	strict      bool
	sampleLimit int
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithCatalog sets the catalog consulted for data schemas.
func WithCatalog(c *catalog.Catalog) Option {
	return func(n *Normalizer) { n.catalog = c }
}

// WithDataSchema enables validation of data against the catalog schema for
// the event type. It has no effect without WithCatalog.
func WithDataSchema(strict bool) Option {
	return func(n *Normalizer) { n.strict = strict }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Normalizer) { n.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *observability.Metrics) Option {
	return func(n *Normalizer) { n.metrics = m }
}

// WithSampleLimit bounds how many cached deliveries ListSamples reads.
func WithSampleLimit(limit int) Option {
	return func(n *Normalizer) {
		if limit > 0 {
			n.sampleLimit = limit
		}
	}
}

// NewNormalizer creates a normalizer for eventType.
func NewNormalizer(eventType string, opts ...Option) *Normalizer {
	n := &Normalizer{
		eventType:   eventType,
		sampleLimit: DefaultSampleLimit,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.logger == nil {
		n.logger = slog.Default()
	}
	return n
}

// EventType returns the registered event type.
func (n *Normalizer) EventType() string { return n.eventType }

// HandleDelivery decodes and normalizes a raw delivery body.
func (n *Normalizer) HandleDelivery(ctx context.Context, raw []byte) (*Event, error) {
	ev, err := n.normalizeRaw(raw)
	n.observe(ctx, err)
	return ev, err
}

// HandlePayload normalizes an already-decoded delivery. Typed maps under
// "data" (e.g. map[string]string) are accepted and re-encoded as JSON values.
func (n *Normalizer) HandlePayload(ctx context.Context, payload map[string]any) (*Event, error) {
	ev, err := n.normalize(payload)
	n.observe(ctx, err)
	return ev, err
}

func (n *Normalizer) normalizeRaw(raw []byte) (*Event, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, n.reject(ErrMalformedPayload, "body must be a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, n.reject(ErrMalformedPayload, err.Error())
	}
	if err := dec.Decode(new(json.RawMessage)); !errors.Is(err, io.EOF) {
		return nil, n.reject(ErrMalformedPayload, "unexpected data after JSON object")
	}
	return n.normalize(payload)
}

func (n *Normalizer) normalize(payload map[string]any) (*Event, error) {
	if payload == nil {
		return nil, n.reject(ErrMalformedPayload, "body must be a JSON object")
	}

	var missing []string
	for _, f := range requiredFields {
		if isBlank(payload[f]) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &RejectionError{Reason: ErrMissingFields, Want: n.eventType, Missing: missing}
	}

	id, ok := scalarString(payload["id"])
	if !ok {
		return nil, n.reject(ErrMalformedPayload, "id must be a string or number")
	}
	typ, ok := payload["type"].(string)
	if !ok {
		return nil, n.reject(ErrMalformedPayload, "type must be a string")
	}
	ts, ok := scalarString(payload["timestamp"])
	if !ok {
		return nil, n.reject(ErrMalformedPayload, "timestamp must be a string or number")
	}

	if typ != n.eventType {
		return nil, &RejectionError{Reason: ErrTypeMismatch, Want: n.eventType, Got: typ}
	}

	fields, err := Flatten(payload)
	if err != nil {
		var re *RejectionError
		if errors.As(err, &re) {
			re.Want = n.eventType
		}
		return nil, err
	}

	if n.strict && n.catalog != nil {
		if err := n.catalog.ValidateData(n.eventType, payload[dataKey]); err != nil {
			return nil, n.reject(ErrSchemaViolation, err.Error())
		}
	}

	return &Event{ID: id, Type: typ, Timestamp: ts, Fields: fields}, nil
}

// ListSamples returns recent cached deliveries normalized in received order.
// When recent is nil, fails, or yields nothing usable, the fallback sample is
// normalized through the same path. Failures degrade to an empty slice.
func (n *Normalizer) ListSamples(ctx context.Context, recent RecentSource, fallback map[string]any) []*Event {
	events := make([]*Event, 0, n.sampleLimit)

	if recent != nil {
		raws, err := recent.Recent(ctx, n.eventType, n.sampleLimit)
		if err != nil {
			n.logger.WarnContext(ctx, "recent deliveries unavailable",
				"event_type", n.eventType, "error", err)
		}
		for i, raw := range raws {
			ev, err := n.normalizeRaw(raw)
			if err != nil {
				n.logger.DebugContext(ctx, "skipping unusable cached delivery",
					"event_type", n.eventType, "index", i, "error", err)
				continue
			}
			events = append(events, ev)
		}
	}
	if len(events) > 0 {
		return events
	}

	if fallback == nil {
		return events
	}
	// Round-trip through JSON so the sample decodes exactly as a live
	// delivery would.
	raw, err := json.Marshal(fallback)
	if err != nil {
		n.logger.WarnContext(ctx, "fallback sample not encodable",
			"event_type", n.eventType, "error", err)
		return events
	}
	ev, err := n.normalizeRaw(raw)
	if err != nil {
		n.logger.WarnContext(ctx, "fallback sample rejected",
			"event_type", n.eventType, "error", err)
		return events
	}
	return append(events, ev)
}

func (n *Normalizer) reject(reason error, detail string) *RejectionError {
	return &RejectionError{Reason: reason, Want: n.eventType, Detail: detail}
}

func (n *Normalizer) observe(ctx context.Context, err error) {
	if err == nil {
		n.metrics.RecordDelivery(n.eventType, "accepted")
		return
	}
	outcome := "malformed"
	var re *RejectionError
	if errors.As(err, &re) {
		outcome = re.Outcome()
	}
	n.metrics.RecordDelivery(n.eventType, outcome)
	n.logger.InfoContext(ctx, "delivery rejected",
		"event_type", n.eventType, "outcome", outcome, "error", err)
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	}
	return false
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return "", false
	}
}
