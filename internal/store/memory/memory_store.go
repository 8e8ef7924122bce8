package memory

import (
	"context"
	"encoding/json"
	"sync"

	"salestrack/types"
)

// Store is an in-memory StateStore for tests and embedded single-process use.
// Values are kept JSON-encoded so round-trip behavior matches the durable
// implementations.
type Store struct {
	mu      sync.Mutex
	items   []byte
	summary []byte
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Load(ctx context.Context) ([]types.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.items == nil {
		return []types.QueueItem{}, nil
	}
	var items []types.QueueItem
	if err := json.Unmarshal(s.items, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) Save(ctx context.Context, items []types.QueueItem, summary types.QueueSummary) error {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return err
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = itemsJSON
	s.summary = summaryJSON
	return nil
}

func (s *Store) LoadSummary(ctx context.Context) (types.QueueSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var summary types.QueueSummary
	if s.summary == nil {
		return summary, nil
	}
	if err := json.Unmarshal(s.summary, &summary); err != nil {
		return types.QueueSummary{}, err
	}
	return summary, nil
}

func (s *Store) Close() error { return nil }
