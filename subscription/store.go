package subscription

import "context"

// Store is the host-side subscription ledger. It is bookkeeping only and is
// never consulted to decide whether to call the document service.
type Store interface {
	// SaveSubscription upserts by (EventType, TargetURL). An existing record
	// keeps its ID and CreatedAt, takes the new RemoteID, and the kept values
	// are written back into sub.
	SaveSubscription(ctx context.Context, sub *Subscription) error

	// GetSubscription returns the record for an (eventType, targetURL) pair.
	GetSubscription(ctx context.Context, eventType, targetURL string) (*Subscription, error)

	// GetSubscriptionByRemoteID returns the record holding remoteID.
	GetSubscriptionByRemoteID(ctx context.Context, remoteID string) (*Subscription, error)

	// DeleteSubscription removes the record holding remoteID. Deleting an
	// absent record is not an error.
	DeleteSubscription(ctx context.Context, remoteID string) error

	// ListSubscriptions returns records ordered by creation time.
	ListSubscriptions(ctx context.Context, opts ListOpts) ([]*Subscription, error)
}
