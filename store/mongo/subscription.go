package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/renderrelay"
	"github.com/xraph/renderrelay/subscription"
)

// SaveSubscription upserts by (event_type, target_url). An existing document
// keeps its _id and created_at.
func (s *Store) SaveSubscription(ctx context.Context, sub *subscription.Subscription) error {
	m := toSubscriptionModel(sub)
	m.UpdatedAt = now()

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"event_type": m.EventType, "target_url": m.TargetURL}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"remote_id":  m.RemoteID,
				"updated_at": m.UpdatedAt,
			},
			"$setOnInsert": bson.M{
				"_id":        m.ID,
				"event_type": m.EventType,
				"target_url": m.TargetURL,
				"created_at": m.CreatedAt,
			},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("renderrelay/mongo: save subscription: %w", err)
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

// GetSubscription returns the document for a pair.
func (s *Store) GetSubscription(ctx context.Context, eventType, targetURL string) (*subscription.Subscription, error) {
	var m subscriptionModel

	err := s.mdb.NewFind(&m).
		Filter(bson.M{"event_type": eventType, "target_url": targetURL}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, renderrelay.ErrSubscriptionNotFound
		}

		return nil, fmt.Errorf("renderrelay/mongo: get subscription: %w", err)
	}

	return fromSubscriptionModel(&m)
}

// GetSubscriptionByRemoteID returns the document holding remoteID.
func (s *Store) GetSubscriptionByRemoteID(ctx context.Context, remoteID string) (*subscription.Subscription, error) {
	var m subscriptionModel

	err := s.mdb.NewFind(&m).
		Filter(bson.M{"remote_id": remoteID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, renderrelay.ErrSubscriptionNotFound
		}

		return nil, fmt.Errorf("renderrelay/mongo: get subscription by remote id: %w", err)
	}

	return fromSubscriptionModel(&m)
}

// DeleteSubscription removes the document holding remoteID, if any.
func (s *Store) DeleteSubscription(ctx context.Context, remoteID string) error {
	_, err := s.mdb.NewDelete((*subscriptionModel)(nil)).
		Filter(bson.M{"remote_id": remoteID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("renderrelay/mongo: delete subscription: %w", err)
	}

	return nil
}

// ListSubscriptions returns documents ordered by creation time.
func (s *Store) ListSubscriptions(ctx context.Context, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	var models []subscriptionModel

	filter := bson.M{}
	if opts.EventType != "" {
		filter["event_type"] = opts.EventType
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}

	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("renderrelay/mongo: list subscriptions: %w", err)
	}

	result := make([]*subscription.Subscription, 0, len(models))

	for i := range models {
		sub, err := fromSubscriptionModel(&models[i])
		if err != nil {
			return nil, err
		}

		result = append(result, sub)
	}

	return result, nil
}
