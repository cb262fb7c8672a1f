// Package mongo implements store.Store on MongoDB via the grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/renderrelay/store"
)

// Collection name constants.
const (
	colSubscriptions = "renderrelay_subscriptions"
	colRecent        = "renderrelay_recent_deliveries"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db        *grove.DB
	mdb       *mongodriver.MongoDB
	recentCap int
}

// Option configures a MongoDB Store.
type Option func(*Store)

// WithRecentCapacity sets how many deliveries are kept per event type.
func WithRecentCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.recentCap = n
		}
	}
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB, opts ...Option) *Store {
	s := &Store{
		db:        db,
		mdb:       mongodriver.Unwrap(db),
		recentCap: store.DefaultRecentCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all renderrelay collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}

		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("renderrelay/mongo: migrate %s indexes: %w", col, err)
		}
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

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colSubscriptions: {
			{
				Keys:    bson.D{{Key: "event_type", Value: 1}, {Key: "target_url", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "remote_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		colRecent: {
			{Keys: bson.D{{Key: "event_type", Value: 1}, {Key: "received_at", Value: -1}}},
		},
	}
}
