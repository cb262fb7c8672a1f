// Package sqlite implements store.Store on SQLite via the grove ORM. It suits
// single-process hosts that want the ledger to survive restarts.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/renderrelay"
	relaystore "github.com/xraph/renderrelay/store"
	"github.com/xraph/renderrelay/subscription"
)

// compile-time interface check
var _ relaystore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db        *grove.DB
	sdb       *sqlitedriver.SqliteDB
	recentCap int
}

// Option configures a SQLite Store.
type Option func(*Store)

// WithRecentCapacity sets how many deliveries are kept per event type.
func WithRecentCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.recentCap = n
		}
	}
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB, opts ...Option) *Store {
	s := &Store{
		db:        db,
		sdb:       sqlitedriver.Unwrap(db),
		recentCap: relaystore.DefaultRecentCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("renderrelay/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("renderrelay/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Subscription Store ====================

// SaveSubscription upserts by (event_type, target_url) and reads the stored
// row back so the kept ID and CreatedAt reach the caller.
func (s *Store) SaveSubscription(ctx context.Context, sub *subscription.Subscription) error {
	m := toSubscriptionModel(sub)
	m.UpdatedAt = time.Now().UTC()

	_, err := s.sdb.NewInsert(m).
		OnConflict("(event_type, target_url) DO UPDATE").
		Set("remote_id = EXCLUDED.remote_id").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("renderrelay/sqlite: save subscription: %w", err)
	}

	stored, err := s.GetSubscription(ctx, sub.EventType, sub.TargetURL)
	if err != nil {
		return err
	}
	sub.ID = stored.ID
	sub.CreatedAt = stored.CreatedAt
	sub.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, eventType, targetURL string) (*subscription.Subscription, error) {
	m := new(subscriptionModel)
	err := s.sdb.NewSelect(m).
		Where("event_type = ?", eventType).
		Where("target_url = ?", targetURL).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, renderrelay.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return fromSubscriptionModel(m)
}

func (s *Store) GetSubscriptionByRemoteID(ctx context.Context, remoteID string) (*subscription.Subscription, error) {
	m := new(subscriptionModel)
	err := s.sdb.NewSelect(m).
		Where("remote_id = ?", remoteID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, renderrelay.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return fromSubscriptionModel(m)
}

// DeleteSubscription removes the row holding remoteID. No matching row is
// not an error.
func (s *Store) DeleteSubscription(ctx context.Context, remoteID string) error {
	_, err := s.sdb.NewDelete((*subscriptionModel)(nil)).
		Where("remote_id = ?", remoteID).
		Exec(ctx)
	return err
}

func (s *Store) ListSubscriptions(ctx context.Context, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	var models []subscriptionModel
	q := s.sdb.NewSelect(&models)

	if opts.EventType != "" {
		q = q.Where("event_type = ?", opts.EventType)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC, id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*subscription.Subscription, len(models))
	for i := range models {
		sub, err := fromSubscriptionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = sub
	}
	return result, nil
}

// ==================== Recent Delivery Store ====================

// RecordDelivery inserts raw and trims the event type to the newest rows.
func (s *Store) RecordDelivery(ctx context.Context, eventType string, raw []byte) error {
	m := &recentDeliveryModel{
		ID:         uuid.NewString(),
		EventType:  eventType,
		Payload:    append([]byte(nil), raw...),
		ReceivedAt: time.Now().UnixNano(),
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("renderrelay/sqlite: record delivery: %w", err)
	}

	_, err := s.sdb.NewDelete((*recentDeliveryModel)(nil)).
		Where("event_type = ?", eventType).
		Where("id NOT IN (SELECT id FROM renderrelay_recent_deliveries WHERE event_type = ? ORDER BY received_at DESC LIMIT ?)",
			eventType, s.recentCap).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("renderrelay/sqlite: evict deliveries: %w", err)
	}
	return nil
}

// Recent returns up to limit of the newest deliveries, oldest first.
func (s *Store) Recent(ctx context.Context, eventType string, limit int) ([][]byte, error) {
	var models []recentDeliveryModel
	q := s.sdb.NewSelect(&models).
		Where("event_type = ?", eventType).
		OrderExpr("received_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	out := make([][]byte, len(models))
	for i := range models {
		out[len(models)-1-i] = models[i].Payload
	}
	return out, nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
