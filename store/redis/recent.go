package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// recentRecord is the msgpack representation of one cached delivery.
type recentRecord struct {
	ReceivedAt time.Time `msgpack:"received_at"`
	Payload    []byte    `msgpack:"payload"`
}

func (s *Store) RecordDelivery(ctx context.Context, eventType string, raw []byte) error {
	buf, err := msgpack.Marshal(&recentRecord{ReceivedAt: now(), Payload: raw})
	if err != nil {
		return fmt.Errorf("renderrelay/redis: encode delivery: %w", err)
	}

	key := entityKey(prefixRecent, eventType)
	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.RPush(ctx, key, buf)
		pipe.LTrim(ctx, key, int64(-s.recentCap), -1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("renderrelay/redis: record delivery: %w", err)
	}
	return nil
}

func (s *Store) Recent(ctx context.Context, eventType string, limit int) ([][]byte, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}

	items, err := s.rdb.LRange(ctx, entityKey(prefixRecent, eventType), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("renderrelay/redis: recent deliveries: %w", err)
	}

	out := make([][]byte, 0, len(items))
	for _, item := range items {
		var rec recentRecord
		if err := msgpack.Unmarshal([]byte(item), &rec); err != nil {
			continue
		}
		out = append(out, rec.Payload)
	}
	return out, nil
}
