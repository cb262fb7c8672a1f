package webhook

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// FieldSeparator joins a parent key to a child key when flattening. Consumers
// address flattened fields with this exact separator.
const FieldSeparator = "__"

const dataKey = "data"

// Event is a normalized inbound delivery: one flat object holding id, type,
// timestamp, any other top-level keys verbatim, and data__<key> for each key
// of the delivery's data object.
type Event struct {
	ID        string
	Type      string
	Timestamp string

	// Fields is the complete flat object, including id, type and timestamp.
	Fields map[string]any
}

// MarshalJSON encodes the event as its flat field object.
func (e *Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Fields)
}

// Get returns a field of the flat object.
func (e *Event) Get(key string) (any, bool) {
	v, ok := e.Fields[key]
	return v, ok
}

// DataKeys returns the flattened data keys, sorted.
func (e *Event) DataKeys() []string {
	prefix := dataKey + FieldSeparator
	var keys []string
	for k := range e.Fields {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Flatten maps a decoded delivery into its flat form. Top-level keys other
// than data are copied verbatim; each key of data becomes data__<key> with its
// value untouched, so nesting below the first level is preserved. A flattened
// data key wins over a literal top-level key of the same name. The input map
// is not modified.
func Flatten(payload map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if k == dataKey {
			continue
		}
		out[k] = v
	}

	raw, present := payload[dataKey]
	if !present || raw == nil {
		return out, nil
	}
	data, ok := raw.(map[string]any)
	if !ok {
		if data, ok = objectFromTyped(raw); !ok {
			return nil, &RejectionError{Reason: ErrMalformedPayload, Detail: "data must be an object"}
		}
	}
	for k, v := range data {
		out[dataKey+FieldSeparator+k] = v
	}
	return out, nil
}

// objectFromTyped re-encodes a Go value such as map[string]string or a struct
// into the generic form a JSON decode would have produced.
func objectFromTyped(v any) (map[string]any, bool) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil || out == nil {
		return nil, false
	}
	return out, true
}
