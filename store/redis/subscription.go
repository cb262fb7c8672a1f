package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/renderrelay"
	"github.com/xraph/renderrelay/id"
	"github.com/xraph/renderrelay/internal/entity"
	"github.com/xraph/renderrelay/subscription"
)

// subscriptionModel is the JSON representation stored in Redis.
type subscriptionModel struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	TargetURL string    `json:"target_url"`
	RemoteID  string    `json:"remote_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toSubscriptionModel(sub *subscription.Subscription) *subscriptionModel {
	return &subscriptionModel{
		ID:        sub.ID.String(),
		EventType: sub.EventType,
		TargetURL: sub.TargetURL,
		RemoteID:  sub.RemoteID,
		CreatedAt: sub.CreatedAt,
		UpdatedAt: sub.UpdatedAt,
	}
}

func fromSubscriptionModel(m *subscriptionModel) (*subscription.Subscription, error) {
	subID, err := id.ParseSubscriptionID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse subscription ID %q: %w", m.ID, err)
	}
	return &subscription.Subscription{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:        subID,
		EventType: m.EventType,
		TargetURL: m.TargetURL,
		RemoteID:  m.RemoteID,
	}, nil
}

func (s *Store) SaveSubscription(ctx context.Context, sub *subscription.Subscription) error {
	pk := pairKey(sub.EventType, sub.TargetURL)

	var staleRemote string
	existingID, err := s.rdb.Get(ctx, pk).Result()
	switch {
	case err == nil:
		var existing subscriptionModel
		if err := s.getEntity(ctx, entityKey(prefixSubscription, existingID), &existing); err != nil && !isRedisNil(err) {
			return fmt.Errorf("renderrelay/redis: save subscription get: %w", err)
		} else if err == nil {
			kept, err := fromSubscriptionModel(&existing)
			if err != nil {
				return fmt.Errorf("renderrelay/redis: save subscription: %w", err)
			}
			sub.ID = kept.ID
			sub.CreatedAt = kept.CreatedAt
			sub.UpdatedAt = now()
			if existing.RemoteID != sub.RemoteID {
				staleRemote = existing.RemoteID
			}
		}
	case !isRedisNil(err):
		return fmt.Errorf("renderrelay/redis: save subscription lookup: %w", err)
	}

	m := toSubscriptionModel(sub)
	raw, err := encodeEntity(m)
	if err != nil {
		return err
	}
	score := scoreFromTime(m.CreatedAt)

	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, entityKey(prefixSubscription, m.ID), raw, 0)
		pipe.Set(ctx, pk, m.ID, 0)
		pipe.Set(ctx, uniqueSubRemote+m.RemoteID, m.ID, 0)
		if staleRemote != "" {
			pipe.Del(ctx, uniqueSubRemote+staleRemote)
		}
		pipe.ZAdd(ctx, zSubAll, goredis.Z{Score: score, Member: m.ID})
		pipe.ZAdd(ctx, zSubType+m.EventType, goredis.Z{Score: score, Member: m.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("renderrelay/redis: save subscription: %w", err)
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, eventType, targetURL string) (*subscription.Subscription, error) {
	return s.getByIndex(ctx, pairKey(eventType, targetURL))
}

func (s *Store) GetSubscriptionByRemoteID(ctx context.Context, remoteID string) (*subscription.Subscription, error) {
	return s.getByIndex(ctx, uniqueSubRemote+remoteID)
}

func (s *Store) getByIndex(ctx context.Context, indexKey string) (*subscription.Subscription, error) {
	subID, err := s.rdb.Get(ctx, indexKey).Result()
	if err != nil {
		if isRedisNil(err) {
			return nil, renderrelay.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("renderrelay/redis: get subscription index: %w", err)
	}
	return s.getSubscriptionByID(ctx, subID)
}

func (s *Store) getSubscriptionByID(ctx context.Context, subID string) (*subscription.Subscription, error) {
	var m subscriptionModel
	if err := s.getEntity(ctx, entityKey(prefixSubscription, subID), &m); err != nil {
		if isRedisNil(err) {
			return nil, renderrelay.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("renderrelay/redis: get subscription: %w", err)
	}
	return fromSubscriptionModel(&m)
}

func (s *Store) DeleteSubscription(ctx context.Context, remoteID string) error {
	sub, err := s.GetSubscriptionByRemoteID(ctx, remoteID)
	if err != nil {
		if errors.Is(err, renderrelay.ErrSubscriptionNotFound) {
			return nil
		}
		return err
	}

	subID := sub.ID.String()
	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx,
			entityKey(prefixSubscription, subID),
			pairKey(sub.EventType, sub.TargetURL),
			uniqueSubRemote+remoteID,
		)
		pipe.ZRem(ctx, zSubAll, subID)
		pipe.ZRem(ctx, zSubType+sub.EventType, subID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("renderrelay/redis: delete subscription: %w", err)
	}
	return nil
}

func (s *Store) ListSubscriptions(ctx context.Context, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	index := zSubAll
	if opts.EventType != "" {
		index = zSubType + opts.EventType
	}

	start, stop := rangeBounds(opts.Offset, opts.Limit)
	ids, err := s.rdb.ZRange(ctx, index, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("renderrelay/redis: list subscriptions: %w", err)
	}

	result := make([]*subscription.Subscription, 0, len(ids))
	for _, subID := range ids {
		sub, err := s.getSubscriptionByID(ctx, subID)
		if err != nil {
			if errors.Is(err, renderrelay.ErrSubscriptionNotFound) {
				continue
			}
			return nil, err
		}
		result = append(result, sub)
	}
	return result, nil
}
