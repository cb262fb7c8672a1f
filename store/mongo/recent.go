package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// RecordDelivery inserts raw and removes documents past the per-type capacity.
func (s *Store) RecordDelivery(ctx context.Context, eventType string, raw []byte) error {
	m := &recentDeliveryModel{
		ID:         uuid.NewString(),
		EventType:  eventType,
		Payload:    append([]byte(nil), raw...),
		ReceivedAt: time.Now().UnixNano(),
	}

	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("renderrelay/mongo: record delivery: %w", err)
	}

	var stale []recentDeliveryModel

	if err := s.mdb.NewFind(&stale).
		Filter(bson.M{"event_type": eventType}).
		Sort(bson.D{{Key: "received_at", Value: -1}}).
		Skip(int64(s.recentCap)).
		Scan(ctx); err != nil {
		return fmt.Errorf("renderrelay/mongo: scan stale deliveries: %w", err)
	}

	for i := range stale {
		if _, err := s.mdb.NewDelete((*recentDeliveryModel)(nil)).
			Filter(bson.M{"_id": stale[i].ID}).
			Exec(ctx); err != nil {
			return fmt.Errorf("renderrelay/mongo: evict delivery: %w", err)
		}
	}

	return nil
}

// Recent returns up to limit of the newest deliveries, oldest first.
func (s *Store) Recent(ctx context.Context, eventType string, limit int) ([][]byte, error) {
	var models []recentDeliveryModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{"event_type": eventType}).
		Sort(bson.D{{Key: "received_at", Value: -1}})

	if limit > 0 {
		q = q.Limit(int64(limit))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("renderrelay/mongo: recent deliveries: %w", err)
	}

	out := make([][]byte, len(models))
	for i := range models {
		out[len(models)-1-i] = models[i].Payload
	}

	return out, nil
}
