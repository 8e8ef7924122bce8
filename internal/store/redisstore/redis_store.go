package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"salestrack/internal/store"
	"salestrack/types"
)

// Store persists queue state as JSON values under the two fixed keys. The
// item list is written before the summary, so a reader that observes the new
// summary is guaranteed the new list is already durable.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Load(ctx context.Context) ([]types.QueueItem, error) {
	raw, err := s.rdb.Get(ctx, store.ItemsKey).Result()
	if errors.Is(err, redis.Nil) {
		return []types.QueueItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load queue items: %w", err)
	}

	var items []types.QueueItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode queue items: %w", err)
	}
	return items, nil
}

func (s *Store) Save(ctx context.Context, items []types.QueueItem, summary types.QueueSummary) error {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode queue items: %w", err)
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode queue summary: %w", err)
	}

	if err := s.rdb.Set(ctx, store.ItemsKey, itemsJSON, 0).Err(); err != nil {
		return fmt.Errorf("save queue items: %w", err)
	}
	if err := s.rdb.Set(ctx, store.SummaryKey, summaryJSON, 0).Err(); err != nil {
		return fmt.Errorf("save queue summary: %w", err)
	}
	return nil
}

func (s *Store) LoadSummary(ctx context.Context) (types.QueueSummary, error) {
	var summary types.QueueSummary

	raw, err := s.rdb.Get(ctx, store.SummaryKey).Result()
	if errors.Is(err, redis.Nil) {
		return summary, nil
	}
	if err != nil {
		return summary, fmt.Errorf("load queue summary: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return types.QueueSummary{}, fmt.Errorf("decode queue summary: %w", err)
	}
	return summary, nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
