package renderrelay

import (
	"errors"

	"github.com/xraph/renderrelay/catalog"
)

// Sentinel errors returned by renderrelay operations.
var (
	// ErrNoAPIKey is returned when an Adapter is created without an API key
	// and without a custom HTTP client to authenticate requests.
	ErrNoAPIKey = errors.New("renderrelay: api key is required")

	// ErrSubscriptionNotFound is returned when a ledger record cannot be found.
	ErrSubscriptionNotFound = errors.New("renderrelay: subscription not found")

	// ErrStoreClosed is returned when a store operation is attempted after the store is closed.
	ErrStoreClosed = errors.New("renderrelay: store is closed")

	// ErrEventTypeNotFound is returned when an event type is not registered in the catalog.
	ErrEventTypeNotFound = catalog.ErrEventTypeNotFound
)
