package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/renderrelay/id"
	"github.com/xraph/renderrelay/internal/entity"
	"github.com/xraph/renderrelay/subscription"
)

type subscriptionModel struct {
	grove.BaseModel `grove:"table:renderrelay_subscriptions"`

	ID        string    `grove:"id,pk"       bson:"_id"`
	EventType string    `grove:"event_type"  bson:"event_type"`
	TargetURL string    `grove:"target_url"  bson:"target_url"`
	RemoteID  string    `grove:"remote_id"   bson:"remote_id"`
	CreatedAt time.Time `grove:"created_at"  bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"  bson:"updated_at"`
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
	sid, err := id.ParseSubscriptionID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse subscription ID %q: %w", m.ID, err)
	}

	return &subscription.Subscription{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:        sid,
		EventType: m.EventType,
		TargetURL: m.TargetURL,
		RemoteID:  m.RemoteID,
	}, nil
}

type recentDeliveryModel struct {
	grove.BaseModel `grove:"table:renderrelay_recent_deliveries"`

	ID         string `grove:"id,pk"        bson:"_id"`
	EventType  string `grove:"event_type"   bson:"event_type"`
	Payload    []byte `grove:"payload"      bson:"payload"`
	ReceivedAt int64  `grove:"received_at"  bson:"received_at"`
}
