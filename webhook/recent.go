package webhook

import "context"

// RecentSource yields raw deliveries the host has recently received for an
// event type, oldest first.
type RecentSource interface {
	Recent(ctx context.Context, eventType string, limit int) ([][]byte, error)
}

// RecentStore is a RecentSource that can also record deliveries.
type RecentStore interface {
	RecentSource

	// RecordDelivery appends a raw delivery, evicting the oldest once the
	// per-type capacity is reached.
	RecordDelivery(ctx context.Context, eventType string, raw []byte) error
}
