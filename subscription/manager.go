// Package subscription registers and tears down webhook subscriptions with
// the document service and keeps a host-side ledger of them.
package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/xraph/renderrelay/catalog"
	"github.com/xraph/renderrelay/gateway"
	"github.com/xraph/renderrelay/id"
	"github.com/xraph/renderrelay/internal/entity"
)

// ErrMissingSubscriptionID is returned when the document service accepts a
// registration but its response carries no subscription identifier.
var ErrMissingSubscriptionID = errors.New("subscription: response carried no subscription id")

// Config holds the remote path of the webhook collection.
type Config struct {
	WebhooksPath string
}

// Manager drives the subscription lifecycle.
type Manager struct {
	client  gateway.Doer
	store   Store
	catalog *catalog.Catalog
	path    string
	logger  *slog.Logger
}

// NewManager creates a manager. store and cat may be nil: without a store no
// ledger is kept, without a catalog event types are not checked.
func NewManager(client gateway.Doer, store Store, cat *catalog.Catalog, cfg Config, logger *slog.Logger) *Manager {
	if cfg.WebhooksPath == "" {
		cfg.WebhooksPath = "/webhooks"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		client:  client,
		store:   store,
		catalog: cat,
		path:    cfg.WebhooksPath,
		logger:  logger,
	}
}

// Subscribe registers targetURL for eventType. The remote service is always
// called; repeated registrations of the same pair rely on its idempotency and
// leave a single ledger record.
func (m *Manager) Subscribe(ctx context.Context, eventType, targetURL string) (*Subscription, error) {
	if eventType == "" {
		return nil, &ValidationError{Field: "event_type", Message: "required"}
	}
	if m.catalog != nil && !m.catalog.Has(eventType) {
		return nil, fmt.Errorf("subscription: %w: %q", catalog.ErrEventTypeNotFound, eventType)
	}
	if u, err := url.ParseRequestURI(targetURL); err != nil || u.Host == "" {
		return nil, &ValidationError{Field: "target_url", Message: "invalid URL"}
	}

	var raw map[string]any
	err := m.client.Do(ctx, gateway.Request{
		Op:     "webhooks.create",
		Method: http.MethodPost,
		Path:   m.path,
		Body: map[string]string{
			"eventType": eventType,
			"targetUrl": targetURL,
		},
	}, &raw)
	if err != nil {
		return nil, err
	}

	remoteID := extractID(raw)
	if remoteID == "" {
		return nil, ErrMissingSubscriptionID
	}

	sub := &Subscription{
		Entity:    entity.New(),
		ID:        id.NewSubscriptionID(),
		EventType: eventType,
		TargetURL: targetURL,
		RemoteID:  remoteID,
	}

	if m.store != nil {
		if err := m.store.SaveSubscription(ctx, sub); err != nil {
			m.logger.WarnContext(ctx, "failed to record subscription",
				"event_type", eventType, "remote_id", remoteID, "error", err)
		}
	}

	m.logger.InfoContext(ctx, "webhook subscribed",
		"event_type", eventType, "remote_id", remoteID, "subscription_id", sub.ID.String())
	return sub, nil
}

// Unsubscribe removes the remote subscription identified by remoteID. A
// subscription the remote service no longer knows about counts as removed.
// Other remote failures are returned after the ledger record is dropped.
func (m *Manager) Unsubscribe(ctx context.Context, remoteID string) error {
	if remoteID == "" {
		return &ValidationError{Field: "remote_id", Message: "required"}
	}

	err := m.client.Do(ctx, gateway.Request{
		Op:     "webhooks.delete",
		Method: http.MethodDelete,
		Path:   m.path + "/" + url.PathEscape(remoteID),
	}, nil)

	switch {
	case err == nil:
	case gateway.IsNotFound(err):
		m.logger.DebugContext(ctx, "webhook already removed", "remote_id", remoteID)
		err = nil
	default:
		m.logger.WarnContext(ctx, "webhook teardown failed",
			"remote_id", remoteID, "status", gateway.StatusOf(err), "error", err)
	}

	if m.store != nil {
		if delErr := m.store.DeleteSubscription(ctx, remoteID); delErr != nil {
			m.logger.WarnContext(ctx, "failed to drop subscription record",
				"remote_id", remoteID, "error", delErr)
		}
	}
	return err
}

// Lookup returns the ledger record for a pair.
func (m *Manager) Lookup(ctx context.Context, eventType, targetURL string) (*Subscription, error) {
	if m.store == nil {
		return nil, ErrNoLedger
	}
	return m.store.GetSubscription(ctx, eventType, targetURL)
}

// List returns ledger records.
func (m *Manager) List(ctx context.Context, opts ListOpts) ([]*Subscription, error) {
	if m.store == nil {
		return nil, ErrNoLedger
	}
	return m.store.ListSubscriptions(ctx, opts)
}

// ErrNoLedger is returned by ledger reads when the manager has no store.
var ErrNoLedger = errors.New("subscription: no ledger configured")

var idKeys = []string{"id", "subscriptionId", "webhookId"}

// extractID finds the remote identifier at the top level of the response or
// under its "data" envelope. Numeric ids are formatted without exponent.
func extractID(body map[string]any) string {
	if s := idFrom(body); s != "" {
		return s
	}
	if data, ok := body["data"].(map[string]any); ok {
		return idFrom(data)
	}
	return ""
}

func idFrom(m map[string]any) string {
	for _, k := range idKeys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// ValidationError indicates invalid input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "subscription validation: " + e.Field + ": " + e.Message
}
