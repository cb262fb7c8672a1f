// Package memory provides an in-memory Store implementation for tests and
// single-process hosts.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/renderrelay"
	relaystore "github.com/xraph/renderrelay/store"
	"github.com/xraph/renderrelay/subscription"
)

// compile-time interface check.
var _ relaystore.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu sync.RWMutex

	subs      map[string]*subscription.Subscription // keyed by ID string
	byPair    map[string]string                     // eventType|targetURL -> ID
	byRemote  map[string]string                     // remote ID -> ID
	recent    map[string][][]byte                   // keyed by event type
	recentCap int

	closed bool
}

// Option configures a memory Store.
type Option func(*Store)

// WithRecentCapacity sets how many deliveries are kept per event type.
func WithRecentCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.recentCap = n
		}
	}
}

// New creates a new in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		subs:      make(map[string]*subscription.Subscription),
		byPair:    make(map[string]string),
		byRemote:  make(map[string]string),
		recent:    make(map[string][][]byte),
		recentCap: relaystore.DefaultRecentCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Ping reports whether the store is open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return renderrelay.ErrStoreClosed
	}
	return nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// ──────────────────────────────────────────────────
// subscription.Store
// ──────────────────────────────────────────────────

func pairKey(eventType, targetURL string) string {
	return eventType + "|" + targetURL
}

// SaveSubscription upserts by (EventType, TargetURL).
func (s *Store) SaveSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return renderrelay.ErrStoreClosed
	}

	pk := pairKey(sub.EventType, sub.TargetURL)
	if existingID, ok := s.byPair[pk]; ok {
		existing := s.subs[existingID]
		if existing.RemoteID != sub.RemoteID {
			delete(s.byRemote, existing.RemoteID)
		}
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
		sub.UpdatedAt = time.Now().UTC()
	}

	cp := *sub
	s.subs[cp.ID.String()] = &cp
	s.byPair[pk] = cp.ID.String()
	s.byRemote[cp.RemoteID] = cp.ID.String()
	return nil
}

// GetSubscription returns the record for a pair.
func (s *Store) GetSubscription(_ context.Context, eventType, targetURL string) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sid, ok := s.byPair[pairKey(eventType, targetURL)]
	if !ok {
		return nil, renderrelay.ErrSubscriptionNotFound
	}
	cp := *s.subs[sid]
	return &cp, nil
}

// GetSubscriptionByRemoteID returns the record holding remoteID.
func (s *Store) GetSubscriptionByRemoteID(_ context.Context, remoteID string) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sid, ok := s.byRemote[remoteID]
	if !ok {
		return nil, renderrelay.ErrSubscriptionNotFound
	}
	cp := *s.subs[sid]
	return &cp, nil
}

// DeleteSubscription removes the record holding remoteID, if any.
func (s *Store) DeleteSubscription(_ context.Context, remoteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return renderrelay.ErrStoreClosed
	}

	sid, ok := s.byRemote[remoteID]
	if !ok {
		return nil
	}
	sub := s.subs[sid]
	delete(s.byRemote, remoteID)
	delete(s.byPair, pairKey(sub.EventType, sub.TargetURL))
	delete(s.subs, sid)
	return nil
}

// ListSubscriptions returns records ordered by creation time.
func (s *Store) ListSubscriptions(_ context.Context, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*subscription.Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		if opts.EventType != "" && sub.EventType != opts.EventType {
			continue
		}
		cp := *sub
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID.String() < result[j].ID.String()
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return applyPagination(result, opts.Offset, opts.Limit), nil
}

// ──────────────────────────────────────────────────
// webhook.RecentStore
// ──────────────────────────────────────────────────

// RecordDelivery appends a copy of raw to the event type's ring.
func (s *Store) RecordDelivery(_ context.Context, eventType string, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return renderrelay.ErrStoreClosed
	}

	buf := append([]byte(nil), raw...)
	list := append(s.recent[eventType], buf)
	if len(list) > s.recentCap {
		list = append([][]byte(nil), list[len(list)-s.recentCap:]...)
	}
	s.recent[eventType] = list
	return nil
}

// Recent returns up to limit of the newest deliveries, oldest first.
func (s *Store) Recent(_ context.Context, eventType string, limit int) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, renderrelay.ErrStoreClosed
	}

	list := s.recent[eventType]
	if limit > 0 && len(list) > limit {
		list = list[len(list)-limit:]
	}
	out := make([][]byte, len(list))
	for i, raw := range list {
		out[i] = append([]byte(nil), raw...)
	}
	return out, nil
}

// applyPagination applies offset and limit to a slice.
func applyPagination[T any](items []*T, offset, limit int) []*T {
	if offset > 0 && offset < len(items) {
		items = items[offset:]
	} else if offset >= len(items) {
		return nil
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
