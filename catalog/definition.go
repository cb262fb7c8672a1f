package catalog

import "encoding/json"

// WebhookDefinition describes an event type the document service can deliver.
type WebhookDefinition struct {
	// Name is the dot-separated event type name, e.g. "batch.completed".
	Name string `json:"name"`

	// Description explains when the event fires.
	Description string `json:"description"`

	// Group is an optional category for organizing event types.
	Group string `json:"group,omitempty"`

	// Schema is an optional JSON Schema describing the event's data object.
	// Strict normalizers validate deliveries against it.
	Schema json.RawMessage `json:"schema,omitempty"`

	// Version is the remote API version of this event type.
	Version string `json:"version"`

	// Example is a representative raw delivery. It backs the sample listing
	// when no live delivery has been cached yet.
	Example json.RawMessage `json:"example,omitempty"`

	// OutputFields labels the keys of the normalized (flattened) event.
	OutputFields []OutputField `json:"output_fields,omitempty"`
}

// OutputField is display metadata for one key of a normalized event.
type OutputField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`
}
