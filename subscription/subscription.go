package subscription

import (
	"github.com/xraph/renderrelay/id"
	"github.com/xraph/renderrelay/internal/entity"
)

// Subscription records a webhook registered with the document service on
// behalf of the host.
type Subscription struct {
	entity.Entity

	// ID is the local ledger identifier.
	ID id.ID `json:"id"`

	// EventType is the subscribed event type, e.g. "batch.completed".
	EventType string `json:"event_type"`

	// TargetURL receives the deliveries.
	TargetURL string `json:"target_url"`

	// RemoteID is the opaque identifier assigned by the document service. It
	// is the only handle needed to tear the subscription down.
	RemoteID string `json:"remote_id"`
}

// ListOpts configures filtering and pagination for ledger listing.
type ListOpts struct {
	Offset    int
	Limit     int
	EventType string
}
