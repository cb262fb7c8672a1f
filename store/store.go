// Package store defines the composite Store interface for renderrelay
// persistence.
//
// Each subsystem defines its own store interface and the aggregate Store
// composes them: the subscription ledger and the recent-delivery cache that
// backs sample listing.
package store

import (
	"context"

	"github.com/xraph/renderrelay/subscription"
	"github.com/xraph/renderrelay/webhook"
)

// Store is the aggregate persistence interface.
type Store interface {
	subscription.Store
	webhook.RecentStore

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

// DefaultRecentCapacity is the number of deliveries every backend keeps per
// event type unless configured otherwise.
const DefaultRecentCapacity = 25
